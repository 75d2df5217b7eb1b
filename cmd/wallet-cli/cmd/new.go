package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"agent-wallet/pkg/hdkey"
)

// newCmd 代表 new 命令
var newCmd = &cobra.Command{
	Use:   "new",
	Short: "创建一个新的 EVM 机器人钱包",
	Long:  `生成一个新的随机 BIP-39 助记词，并显示派生出的私钥和地址 (m/44'/60'/0'/0/0)。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("正在生成新钱包...")
		fmt.Println("---------------------------------------------------")

		// 1. 生成助记词
		mnemonic, err := hdkey.NewMnemonic(256) // 24 words
		if err != nil {
			fmt.Printf("生成助记词失败: %v\n", err)
			return
		}
		fmt.Printf("助记词 (Mnemonic): \n%s\n", mnemonic)
		fmt.Println("---------------------------------------------------")

		// 2. 派生默认账户私钥
		privHex, err := hdkey.EthKeyFromMnemonic(mnemonic, "")
		if err != nil {
			fmt.Printf("派生私钥失败: %v\n", err)
			return
		}
		fmt.Printf("私钥 (Hex): %s\n", privHex)

		// 3. 计算地址
		priv, err := crypto.HexToECDSA(privHex)
		if err != nil {
			fmt.Printf("解析私钥失败: %v\n", err)
			return
		}
		addr := crypto.PubkeyToAddress(priv.PublicKey)
		fmt.Printf("地址 (Address): %s\n", addr.Hex())
		fmt.Println("---------------------------------------------------")
		fmt.Println("把助记词抄在纸上。设置 ETH_MNEMONIC 即可让服务使用这个钱包。")
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
}
