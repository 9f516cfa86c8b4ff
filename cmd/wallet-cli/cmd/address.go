package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"icx-wallet/pkg/config"
	"icx-wallet/pkg/keystore"
)

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "显示 keystore 的地址 (不需要密码)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ks, err := keystore.LoadFromFile(config.Global.Wallet.KeystorePath)
		if err != nil {
			return err
		}
		fmt.Println(ks.Address)
		return nil
	},
}

var ledgerAddressCmd = &cobra.Command{
	Use:   "ledger-address",
	Short: "读取 Ledger 上的地址",
	RunE: func(cmd *cobra.Command, args []string) error {
		display, _ := cmd.Flags().GetBool("display")
		count, _ := cmd.Flags().GetInt("count")

		ctx := context.Background()
		w, err := newWallet(ctx)
		if err != nil {
			return err
		}
		defer w.Close()
		defer w.Hardware.Close()

		for i := indexFlag; i < indexFlag+count; i++ {
			path := w.LedgerPath(i)
			if display {
				fmt.Printf("请在设备上核对账户 %d 的地址...\n", i)
			}
			addr, err := w.Hardware.Address(ctx, path, display)
			if err != nil {
				return err
			}
			fmt.Printf("%d  %s  %s\n", i, path, addr)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(ledgerAddressCmd)
	ledgerAddressCmd.Flags().Bool("display", false, "在设备屏幕上显示并确认地址")
	ledgerAddressCmd.Flags().Int("count", 1, "从 --index 开始列出的账户数量")
}
