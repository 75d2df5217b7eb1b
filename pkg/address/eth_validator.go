package address

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// IsHexAddress 检查字符串是否为 0x 开头的 40 位十六进制地址
func IsHexAddress(addr string) bool {
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return false
	}
	body := addr[2:]
	if len(body) != 40 {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}

// VerifyChecksum 校验 EIP-55 混合大小写地址。
// 全小写或全大写地址不携带校验信息，直接放行。
func VerifyChecksum(addr string) bool {
	if !IsHexAddress(addr) {
		return false
	}
	body := addr[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return body == ToChecksumAddress(body)
}

// ToChecksumAddress 实现 EIP-55 混合大小写校验 (输入不含 0x 前缀)
func ToChecksumAddress(address string) string {
	address = strings.ToLower(address)
	hash := keccak256([]byte(address))
	hexHash := hex.EncodeToString(hash)

	var sb strings.Builder
	for i := 0; i < len(address); i++ {
		char := address[i]
		// 检查 hash 的第 i 位是否 >= 8
		hashByte := hexCharToInt(hexHash[i])
		if hashByte >= 8 {
			sb.WriteString(strings.ToUpper(string(char)))
		} else {
			sb.WriteByte(char)
		}
	}
	return sb.String()
}

func keccak256(data []byte) []byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	return hash.Sum(nil)
}

func hexCharToInt(c byte) byte {
	if c >= '0' && c <= '9' {
		return c - '0'
	}
	if c >= 'a' && c <= 'f' {
		return c - 'a' + 10
	}
	return 0
}
