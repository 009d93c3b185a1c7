package service

import (
	"crypto/rand"
	"math/big"
)

const (
	verificationCodeChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	verificationCodeHalfLen = 4
)

var verificationCodeAlphabetSize = big.NewInt(int64(len(verificationCodeChars)))

// GenerateCode returns a code shaped like "AB12-CD34".
func GenerateCode() string {
	buf := make([]byte, 0, verificationCodeHalfLen*2+1)
	for i := 0; i < verificationCodeHalfLen*2; i++ {
		if i == verificationCodeHalfLen {
			buf = append(buf, '-')
		}
		n, err := rand.Int(rand.Reader, verificationCodeAlphabetSize)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		buf = append(buf, verificationCodeChars[n.Int64()])
	}
	return string(buf)
}
