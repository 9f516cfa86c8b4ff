package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"icx-wallet/internal/rpc"
	"icx-wallet/internal/service"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/amount"
	"icx-wallet/pkg/errno"
)

var transferCmd = &cobra.Command{
	Use:   "transfer <to> <amount>",
	Short: "转账 ICX",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseICX(args[1])
		if err != nil {
			return err
		}
		return withWallet(func(ctx context.Context, w *service.Wallet, _ wallet.Handle) error {
			out, err := w.Transfer(ctx, args[0], value)
			return report(out, err)
		})
	},
}

var stakeCmd = &cobra.Command{
	Use:   "stake <amount>",
	Short: "设置质押量 (ICX)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := parseICX(args[0])
		if err != nil {
			return err
		}
		return withWallet(func(ctx context.Context, w *service.Wallet, _ wallet.Handle) error {
			out, err := w.Stake(ctx, value)
			return report(out, err)
		})
	},
}

var delegateCmd = &cobra.Command{
	Use:   "delegate <prep>=<amount>...",
	Short: "覆盖全部委托, 不带参数时取消所有委托",
	Example: "  wallet-cli delegate hx1111111111111111111111111111111111111111=10 " +
		"hx2222222222222222222222222222222222222222=5.5",
	RunE: func(cmd *cobra.Command, args []string) error {
		delegations := make([]rpc.Delegation, 0, len(args))
		for _, arg := range args {
			prep, icx, ok := strings.Cut(arg, "=")
			if !ok {
				return errno.New(errno.ErrInvalidAmount, "expected <prep>=<amount>, got %q", arg)
			}
			value, err := parseICX(icx)
			if err != nil {
				return err
			}
			delegations = append(delegations, rpc.Delegation{Address: prep, Value: value})
		}
		return withWallet(func(ctx context.Context, w *service.Wallet, _ wallet.Handle) error {
			out, err := w.Delegate(ctx, delegations)
			return report(out, err)
		})
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "领取 I-Score",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWallet(func(ctx context.Context, w *service.Wallet, _ wallet.Handle) error {
			out, err := w.Claim(ctx)
			return report(out, err)
		})
	},
}

func parseICX(s string) (*big.Int, error) {
	d, err := amount.ParseDisplay(s)
	if err != nil {
		return nil, err
	}
	return amount.ToLoop(d)
}

// report 超时时提示交易哈希, 交易可能稍后上链
func report(out *service.Outcome, err error) error {
	if err != nil {
		if out != nil && out.Hash != "" {
			fmt.Printf("txHash: %s\n", out.Hash)
		}
		return err
	}
	printOutcome(out)
	return nil
}

func init() {
	rootCmd.AddCommand(transferCmd, stakeCmd, delegateCmd, claimCmd)
}
