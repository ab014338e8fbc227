package image

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// fingerprintWindow 前後各取的位元組數
const fingerprintWindow = 1000

// Fingerprint 以圖片前 1000 位元組、後 1000 位元組與總長度計算 SHA-256。
// 只用來辨識重複送出的同一張圖片，不具抗碰撞性。
func Fingerprint(data []byte) string {
	n := len(data)
	head := data[:min(n, fingerprintWindow)]
	tail := data[max(0, n-fingerprintWindow):]

	h := sha256.New()
	h.Write(head)
	h.Write(tail)
	h.Write([]byte(strconv.Itoa(n)))
	return hex.EncodeToString(h.Sum(nil))
}
