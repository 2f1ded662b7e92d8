package utils

import "bytes"

// SniffLen is how many leading bytes DetectVideoFormat needs.
const SniffLen = 16

// videoSignatures maps leading magic bytes to a container format.
var videoSignatures = map[string][]byte{
	"wmv":  {0x30, 0x26, 0xB2, 0x75, 0x8E, 0x66, 0xCF, 0x11},
	"flv":  {0x46, 0x4C, 0x56, 0x01},
	"mkv":  {0x1A, 0x45, 0xDF, 0xA3}, // also WebM
	"mpeg": {0x00, 0x00, 0x01, 0xBA},
}

// mp4Brands are brand identifiers that can follow an ftyp box header.
var mp4Brands = [][]byte{
	[]byte("isom"),
	[]byte("iso2"),
	[]byte("mp41"),
	[]byte("mp42"),
	[]byte("avc1"),
	[]byte("dash"),
	[]byte("mp4v"),
	[]byte("M4V "),
	[]byte("qt  "),
}

// DetectVideoFormat inspects the leading bytes of a file and reports the
// video container format, if any. The filename and declared MIME type are
// client-controlled, so only the bytes are trusted.
func DetectVideoFormat(data []byte) (string, bool) {
	if len(data) < 12 {
		return "", false
	}

	// ISO base media (MP4, MOV): box size varies, ftyp is at offset 4.
	if bytes.Equal(data[4:8], []byte("ftyp")) && hasValidMP4Brand(data) {
		return "mp4", true
	}

	// AVI: RIFF header followed by the AVI list type.
	if bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("AVI ")) {
		return "avi", true
	}

	for format, magic := range videoSignatures {
		if bytes.HasPrefix(data, magic) {
			return format, true
		}
	}

	return "", false
}

// hasValidMP4Brand checks the brand identifier at offset 8 of an ftyp box.
func hasValidMP4Brand(data []byte) bool {
	if len(data) < 12 {
		return false
	}

	brand := data[8:12]
	for _, valid := range mp4Brands {
		if bytes.Equal(brand, valid) {
			return true
		}
	}

	return false
}
