package fileio

import (
	"crypto/sha256"
	"hash"
	"hash/crc32"
	"io"
	"os"

	"go_netfile/constants"
)

// ChecksumSHA256 returns SHA256 checksum of given file
func ChecksumSHA256(file string) ([]byte, error) {
	return checksum(file, sha256.New())
}

// ChecksumCRC32 returns CRC32 checksum of given file
func ChecksumCRC32(file string) ([]byte, error) {
	return checksum(file, crc32.New(crc32.IEEETable))
}

func checksum(file string, h hash.Hash) ([]byte, error) {
	handle, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer handle.Close()

	if _, err := io.CopyBuffer(h, handle, make([]byte, constants.HASH_BUFFER_SIZE)); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
