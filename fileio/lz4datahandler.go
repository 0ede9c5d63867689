package fileio

import (
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// CompressFile writes an LZ4 frame of src to dst and returns the compressed size
func CompressFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	zw := lz4.NewWriter(out)
	if err := zw.Apply(lz4.ChecksumOption(true)); err != nil {
		return 0, err
	}
	if _, err := io.Copy(zw, in); err != nil {
		return 0, err
	}
	// Close flushes the last block and writes the frame footer.
	if err := zw.Close(); err != nil {
		return 0, err
	}

	info, err := out.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), out.Close()
}

// DecompressFile restores an LZ4 frame written by CompressFile
func DecompressFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, lz4.NewReader(in))
	if err != nil {
		return n, err
	}
	return n, out.Close()
}
