package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"icx-wallet/internal/relay"
	"icx-wallet/internal/service"
	"icx-wallet/internal/wallet"
	"icx-wallet/pkg/config"
	"icx-wallet/pkg/keystore"
	"icx-wallet/pkg/logger"
)

var (
	networkFlag  string
	keystoreFlag string
	signerFlag   string
	indexFlag    int
)

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "wallet-cli",
	Short: "ICON 钱包命令行工具",
	Long: `ICON (ICX) 钱包命令行工具。
支持 keystore 与 Ledger 签名, 转账, 质押, 委托投票以及领取 I-Score。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Init()
		logger.Init(config.Global.App.Env)
		if networkFlag != "" {
			config.Global.Network.Active = networkFlag
		}
		if keystoreFlag != "" {
			config.Global.Wallet.KeystorePath = keystoreFlag
		}
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("错误: %s", err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "网络 (mainnet / testnet), 默认取配置")
	rootCmd.PersistentFlags().StringVarP(&keystoreFlag, "keystore", "k", "", "keystore 文件路径")
	rootCmd.PersistentFlags().StringVarP(&signerFlag, "signer", "s", "keystore", "签名方式 (keystore / ledger)")
	rootCmd.PersistentFlags().IntVarP(&indexFlag, "index", "i", 0, "Ledger 账户序号")
}

// newWallet CLI 不连接 Redis / Postgres, 只使用进程内实现
func newWallet(ctx context.Context) (*service.Wallet, error) {
	return service.NewWallet(ctx, config.Global, service.Deps{
		Bus:     relay.NewFeedBus(),
		Approve: approveOnTerminal,
	})
}

// unlock 按 --signer 打开会话
func unlock(ctx context.Context, w *service.Wallet) (wallet.Handle, error) {
	switch wallet.Kind(signerFlag) {
	case wallet.KindLedger:
		fmt.Println("正在连接 Ledger, 请打开 ICON 应用...")
		return w.UnlockLedger(ctx, indexFlag)
	case wallet.KindKeystore:
		ks, err := keystore.LoadFromFile(config.Global.Wallet.KeystorePath)
		if err != nil {
			return wallet.Handle{}, err
		}
		password := config.Global.Wallet.Password
		if password == "" {
			if password, err = readPassword("输入密码: "); err != nil {
				return wallet.Handle{}, err
			}
		}
		return w.UnlockKeystore(ks, password)
	default:
		return wallet.Handle{}, fmt.Errorf("不支持的签名方式 %q", signerFlag)
	}
}

// withWallet 创建钱包, 解锁后执行 fn
func withWallet(fn func(ctx context.Context, w *service.Wallet, h wallet.Handle) error) error {
	ctx := context.Background()
	w, err := newWallet(ctx)
	if err != nil {
		return err
	}
	defer w.Close()

	h, err := unlock(ctx, w)
	if err != nil {
		return err
	}
	fmt.Printf("钱包: %s (%s, %s)\n", color.CyanString(h.Address), h.Kind, w.Networks.Ref())
	return fn(ctx, w, h)
}
