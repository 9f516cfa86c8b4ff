package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"icx-wallet/internal/service"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/errno"
)

var claimStakeVoteCmd = &cobra.Command{
	Use:   "claim-stake-vote",
	Short: "领取 I-Score, 追加质押, 并按现有委托平均追加投票",
	Long: `依次执行三笔交易: claimIScore -> setStake -> setDelegation。
某一步失败时已完成的步骤保留, 可以只重试失败的那一步。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWallet(func(ctx context.Context, w *service.Wallet, _ wallet.Handle) error {
			chain, err := w.ClaimStakeVote()
			if err != nil {
				return err
			}

			err = chain.Run(ctx)
			for err != nil {
				printStates(chain)
				var e *errno.Error
				if !errors.As(err, &e) || e.Step == "" {
					return err
				}
				fmt.Println(color.RedString("步骤 %s 失败: %s", e.Step, err.Error()))
				if !confirm(fmt.Sprintf("重试 %s?", e.Step)) {
					return err
				}
				err = chain.RetryStep(ctx, e.Step)
			}
			printStates(chain)
			fmt.Println(color.GreenString("✅ 领取-质押-投票完成"))
			return nil
		})
	},
}

func printStates(c *service.Chain) {
	for _, s := range c.States() {
		status := string(s.Status)
		switch s.Status {
		case service.StatusFinished:
			status = color.GreenString(status)
		case service.StatusErrored:
			status = color.RedString(status)
		case service.StatusWorking:
			status = color.CyanString(status)
		default:
			status = color.YellowString(status)
		}
		fmt.Printf("  %-6s %-18s %s\n", s.Name, status, s.TxHash)
		for k, v := range s.Data {
			fmt.Printf("         %s: %s\n", k, v)
		}
	}
}

func init() {
	rootCmd.AddCommand(claimStakeVoteCmd)
}
