package deploy

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/hwuu/rckt/internal/remote"
	"github.com/hwuu/rckt/internal/scan"
)

// Uploader 按 FileMap 顺序创建远程目录并逐个上传文件。
// 同一时刻只有一个传输在进行，进度计数因此是确定的。
type Uploader struct {
	Client     remote.TransferClient
	FS         billy.Filesystem // 根目录即 LocalRoot
	LocalRoot  string
	RemoteRoot string
	Progress   *Progress
	Emit       func(Event)
}

// UploadAll 上传 FileMap 中的全部文件，返回每个文件的确认信息。
// 任一文件失败立即中止，不重试。
func (u *Uploader) UploadAll(ctx context.Context, fileMap *scan.FileMap) ([]string, error) {
	if u.Progress == nil {
		u.Progress = &Progress{TotalFilesCount: scan.CountFiles(fileMap)}
	}
	if u.Emit == nil {
		u.Emit = func(Event) {}
	}

	var results []string
	for _, relDir := range fileMap.Dirs() {
		if err := u.ensureDir(relDir); err != nil {
			return results, err
		}
		for _, name := range fileMap.Files(relDir) {
			if err := ctx.Err(); err != nil {
				return results, newError(KindUpload, CodeCanceled, "upload cancelled: "+err.Error(), err)
			}
			msg, err := u.uploadFile(relDir, name)
			if err != nil {
				return results, err
			}
			results = append(results, msg)
		}
	}
	return results, nil
}

// ensureDir 根目录（远程路径为 "/"）不需要创建
func (u *Uploader) ensureDir(relDir string) error {
	remoteDir := path.Join(u.RemoteRoot, relDir)
	if remoteDir == "/" {
		return nil
	}
	if err := remote.MkdirExists(u.Client, remoteDir); err != nil {
		return newError(KindDirectory, remote.ErrorCode(err),
			fmt.Sprintf("mkdir %s: %v", remoteDir, err), err)
	}
	return nil
}

func (u *Uploader) uploadFile(relDir, name string) (string, error) {
	filename := path.Join(relDir, name)
	localPath := filepath.Join(u.LocalRoot, filepath.FromSlash(filename))
	remotePath := path.Join(u.RemoteRoot, relDir, name)

	u.Progress.Filename = filename

	data, err := util.ReadFile(u.FS, filename)
	if err != nil {
		u.Emit(UploadErrorEvent{Progress: *u.Progress, Err: err})
		return "", newError(KindUpload, CodeNotFound, fmt.Sprintf("read %s: %v", localPath, err), err)
	}

	u.Emit(UploadingEvent{Progress: *u.Progress})

	if err := u.Client.Put(data, remotePath); err != nil {
		u.Emit(UploadErrorEvent{Progress: *u.Progress, Err: err})
		return "", newError(KindUpload, remote.ErrorCode(err),
			fmt.Sprintf("upload %s: %v", filename, err), err)
	}

	u.Progress.TransferredFileCount++
	u.Emit(UploadedEvent{Progress: *u.Progress})
	return "uploaded " + localPath, nil
}
