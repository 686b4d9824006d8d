package importer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/meltforce/liftlog/internal/models"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Decompress returns a reader over r's content, gunzipping it when r starts
// with a gzip header.
func Decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading backup header: %w", err)
	}
	if !bytes.Equal(head, gzipMagic) {
		return br, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("%w: opening gzip stream: %w", ErrInvalidBackup, err)
	}
	return zr, nil
}

// Decode reads a JSON backup, plain or gzip-compressed.
func Decode(r io.Reader) (*models.Export, error) {
	plain, err := Decompress(r)
	if err != nil {
		return nil, err
	}
	var data models.Export
	if err := json.NewDecoder(plain).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}
	return &data, nil
}
