package hdkey

import (
	"encoding/hex"
	"fmt"

	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// EthDerivationPath 以太坊标准派生路径 m/44'/60'/0'/0/0
var ethPath = []uint32{
	bip32.FirstHardenedChild + 44,
	bip32.FirstHardenedChild + 60,
	bip32.FirstHardenedChild + 0,
	0,
	0,
}

// ValidateMnemonic 验证助记词是否有效 (BIP-39)
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// EthKeyFromMnemonic 从 BIP-39 助记词派生以太坊私钥 (m/44'/60'/0'/0/0)，
// 返回十六进制私钥串。passphrase 可为空。
func EthKeyFromMnemonic(mnemonic, passphrase string) (string, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return "", fmt.Errorf("无效的助记词")
	}

	seed := bip39.NewSeed(mnemonic, passphrase)

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return "", fmt.Errorf("生成主密钥失败: %w", err)
	}

	for _, index := range ethPath {
		key, err = key.NewChildKey(index)
		if err != nil {
			return "", fmt.Errorf("派生子密钥失败 (index=%d): %w", index, err)
		}
	}

	return hex.EncodeToString(key.Key), nil
}

// NewMnemonic 生成一个新的随机助记词。
// bitSize: 熵的位数，通常为 128 (12个单词) 或 256 (24个单词)。
func NewMnemonic(bitSize int) (string, error) {
	entropy, err := bip39.NewEntropy(bitSize)
	if err != nil {
		return "", fmt.Errorf("生成熵失败: %w", err)
	}
	return bip39.NewMnemonic(entropy)
}
