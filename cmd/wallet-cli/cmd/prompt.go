package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"

	"icx-wallet/internal/service"
)

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("读取密码失败: %w", err)
	}
	return string(b), nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt + " (y/N): ")
	input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

// approveOnTerminal 模拟设备上的确认按钮
func approveOnTerminal(path string, raw []byte) bool {
	fmt.Printf("\n[emulator] %s 请求签名:\n%s\n", path, hexOrText(raw))
	return confirm("确认签名?")
}

func hexOrText(raw []byte) string {
	for _, b := range raw {
		if b < 0x20 || b > 0x7e {
			return hex.EncodeToString(raw)
		}
	}
	return string(raw)
}

func printOutcome(out *service.Outcome) {
	fmt.Println(color.GreenString("✅ 交易已确认"))
	fmt.Printf("txHash: %s\n", out.Hash)
	if out.Result != nil {
		fmt.Printf("block:  %s\n", out.Result.BlockHeight)
		fmt.Printf("step:   %s\n", out.Result.StepUsed)
	}
}
