package remote

import (
	"errors"
	"fmt"
	"path"
)

// DeleteRecursive 清空远程目录：先深度优先删除子目录内容并移除子目录，再删除本层文件。
// dir 本身保留。所有操作严格串行，任一失败立即返回。
func DeleteRecursive(client TransferClient, dir string) error {
	entries, err := client.List(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}

	var dirNames, fileNames []string
	for _, e := range entries {
		if e.Type == EntryDir {
			if e.Name == "." || e.Name == ".." {
				continue
			}
			dirNames = append(dirNames, path.Join(dir, e.Name))
			continue
		}
		fileNames = append(fileNames, path.Join(dir, e.Name))
	}

	for _, sub := range dirNames {
		if err := DeleteRecursive(client, sub); err != nil {
			return err
		}
		if err := client.Rmdir(sub); err != nil {
			return fmt.Errorf("rmdir %s: %w", sub, err)
		}
	}

	for _, name := range fileNames {
		if err := client.Delete(name); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
	}
	return nil
}

// MkdirExists 递归创建远程目录，目录已存在视为成功
func MkdirExists(client TransferClient, dir string) error {
	if err := client.Mkdir(dir, true); err != nil && !isAlreadyExists(err) {
		return err
	}
	return nil
}

func isAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
