package handler

import (
	"errors"
	"fmt"
	"image"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	// 注册标准与扩展图片格式解码器，DecodeConfig 据此识别上传内容
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var errNotAnImage = errors.New("uploaded file is not a decodable image")

// saveUploadedImage 校验并保存上传的图片，返回对外可用的相对 URL 路径。
// 文件名用 uuid 前缀防止覆盖，subdir 区分活动图和头像
func (a *API) saveUploadedImage(file *multipart.FileHeader, subdir string) (string, error) {
	if err := validateImage(file); err != nil {
		return "", err
	}

	targetDir := filepath.Join(a.uploadDir, subdir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s", uuid.New().String(), filepath.Base(file.Filename))
	dst := filepath.Join(targetDir, filename)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	if _, err := out.ReadFrom(src); err != nil {
		return "", fmt.Errorf("save upload file: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(a.uploadURL, "/"), subdir, filename), nil
}

// removeUploadedImage 清理被替换或删除的图片文件，容忍文件不存在。
func (a *API) removeUploadedImage(storedPath string) {
	trimmed := strings.TrimSpace(storedPath)
	prefix := strings.TrimRight(a.uploadURL, "/") + "/"
	if trimmed == "" || !strings.HasPrefix(trimmed, prefix) {
		return
	}
	_ = os.Remove(filepath.Join(a.uploadDir, filepath.FromSlash(strings.TrimPrefix(trimmed, prefix))))
}

func validateImage(file *multipart.FileHeader) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if _, _, err := image.DecodeConfig(src); err != nil {
		return errNotAnImage
	}
	return nil
}
