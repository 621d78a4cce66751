package qrcode

import (
	"encoding/base64"
	"fmt"

	goqrcode "github.com/skip2/go-qrcode"

	"flockmanager/internal/domain"
)

const defaultSize = 300

type renderer struct {
	size  int
	level goqrcode.RecoveryLevel
}

// NewRenderer returns a PNG QR renderer producing size x size images. A
// non-positive size selects 300 pixels.
func NewRenderer(size int) domain.QRCodeRenderer {
	if size <= 0 {
		size = defaultSize
	}
	return &renderer{size: size, level: goqrcode.Medium}
}

func (r *renderer) PNG(content string) ([]byte, error) {
	png, err := goqrcode.Encode(content, r.level, r.size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// DataURL returns the PNG as a data: URL that can be used directly as an img src.
func (r *renderer) DataURL(content string) (string, error) {
	png, err := r.PNG(content)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
