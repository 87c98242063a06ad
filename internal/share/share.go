// Package share renders disclosure documents as QR codes so a verifier can
// scan them off a screen or a printout.
package share

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/skip2/go-qrcode"

	"github.com/udaycodespace/credify/internal/disclosure"
)

const DefaultSize = 256

var ErrNothingToShare = errors.New("disclosure record has no disclosure document")

// Payload is the compact JSON of the disclosure document held by rec.
func Payload(rec disclosure.Record) ([]byte, error) {
	doc := rec.Result.Disclosure()
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNothingToShare, rec.ID)
	}
	return json.Marshal(doc)
}

// PNG encodes the disclosure document of rec as a QR code image of
// size x size pixels. Medium error correction is used when the document
// fits, low otherwise.
func PNG(rec disclosure.Record, size int) ([]byte, error) {
	payload, err := Payload(rec)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultSize
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, size)
	if err == nil {
		return png, nil
	}
	png, err = qrcode.Encode(string(payload), qrcode.Low, size)
	if err != nil {
		return nil, fmt.Errorf("encode disclosure %s as QR code: %w", rec.ID, err)
	}
	return png, nil
}

func Base64(rec disclosure.Record, size int) (string, error) {
	png, err := PNG(rec, size)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

func WriteFile(path string, rec disclosure.Record, size int) error {
	png, err := PNG(rec, size)
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0o644)
}
