package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"icx-wallet/internal/session"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/amount"
	"icx-wallet/pkg/config"
	"icx-wallet/pkg/keystore"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "查询余额, 质押, 委托和可领取的 I-Score",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		w, err := newWallet(ctx)
		if err != nil {
			return err
		}
		defer w.Close()

		// 只读查询, keystore 不需要解密
		var h wallet.Handle
		if wallet.Kind(signerFlag) == wallet.KindKeystore {
			ks, err := keystore.LoadFromFile(config.Global.Wallet.KeystorePath)
			if err != nil {
				return err
			}
			if h, err = wallet.NewHandle(ks.Address, wallet.KindKeystore, ""); err != nil {
				return err
			}
			if err := w.Store.Open(h); err != nil {
				return err
			}
		} else if _, err := unlock(ctx, w); err != nil {
			return err
		}

		m, err := w.Store.Metrics(ctx)
		if err != nil {
			return err
		}
		printMetrics(m)
		return nil
	},
}

func printMetrics(m *session.Metrics) {
	fmt.Printf("地址:       %s (%s)\n", color.CyanString(m.Address), m.Network)
	fmt.Printf("余额:       %s ICX\n", amount.Format(m.Balance, 4))
	fmt.Printf("质押:       %s ICX\n", amount.Format(m.Staked, 4))
	fmt.Printf("解押中:     %s ICX\n", amount.Format(m.Unstaking, 4))
	fmt.Printf("已委托:     %s ICX\n", amount.Format(m.TotalDelegated, 4))
	fmt.Printf("可用票数:   %s ICX\n", amount.Format(m.VotingPower, 4))
	fmt.Printf("I-Score:    %s (约 %s ICX)\n", m.IScore.String(), amount.Format(m.EstimatedICX, 4))
	for _, d := range m.Delegations {
		fmt.Printf("  -> %s  %s ICX\n", d.Address, amount.Format(d.Value, 4))
	}
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}
