package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"icx-wallet/pkg/bip32"
	"icx-wallet/pkg/bip39"
	"icx-wallet/pkg/config"
	"icx-wallet/pkg/crypto_util"
	"icx-wallet/pkg/keystore"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "创建一个新的 keystore 钱包",
	Long: `生成新的私钥 (或从 BIP-39 助记词派生), 使用密码加密后保存为 ICON keystore 文件。
--mnemonic 时生成 12 词助记词并按 Ledger 相同路径派生, 同一助记词在 Ledger 上得到相同地址。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		output := config.Global.Wallet.KeystorePath
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("文件 %s 已存在, 请先删除或用 --keystore 指定其他文件名", output)
		}

		password, err := readPassword("输入密码: ")
		if err != nil {
			return err
		}
		again, err := readPassword("确认密码: ")
		if err != nil {
			return err
		}
		if password != again {
			return fmt.Errorf("两次输入的密码不一致")
		}
		if len(password) < 8 {
			return fmt.Errorf("密码长度至少需要 8 位")
		}

		var (
			priv     *ecdsa.PrivateKey
			mnemonic string
		)
		useMnemonic, _ := cmd.Flags().GetBool("mnemonic")
		if useMnemonic {
			mnemonic, priv, err = keyFromNewMnemonic(indexFlag)
		} else {
			priv, err = crypto_util.GenerateSecp256k1Key()
		}
		if err != nil {
			return err
		}

		fmt.Println("正在加密保存...")
		ks, err := keystore.Encrypt(priv, password, config.Global.Wallet.ScryptN, config.Global.Wallet.ScryptP)
		if err != nil {
			return err
		}
		if err := ks.SaveToFile(output); err != nil {
			return err
		}

		fmt.Println(color.GreenString("\n✅ 钱包已创建"))
		fmt.Printf("地址: %s\n", color.CyanString(ks.Address))
		fmt.Printf("文件: %s\n", output)
		if mnemonic != "" {
			fmt.Println(color.YellowString("\n⚠️  请抄写助记词并安全保管:"))
			fmt.Println(mnemonic)
		}
		return nil
	},
}

func keyFromNewMnemonic(index int) (string, *ecdsa.PrivateKey, error) {
	svc := bip39.NewMnemonicService()
	mnemonic, err := svc.Generate(12)
	if err != nil {
		return "", nil, fmt.Errorf("生成助记词失败: %w", err)
	}
	seed, err := svc.Seed(mnemonic, "")
	if err != nil {
		return "", nil, err
	}
	w, err := bip32.NewMasterKeyFromSeed(seed)
	if err != nil {
		return "", nil, err
	}
	base := config.Global.Wallet.LedgerBasePath
	if strings.TrimSpace(base) == "" {
		base = bip32.ICXBasePath
	}
	key, err := w.DerivePath(bip32.AccountPath(base, index))
	if err != nil {
		return "", nil, err
	}
	priv, err := key.PrivateKey()
	if err != nil {
		return "", nil, err
	}
	return mnemonic, priv, nil
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().Bool("mnemonic", false, "从新生成的助记词派生私钥")
}
