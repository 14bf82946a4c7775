package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"demotools/internal/cli"
	"demotools/internal/config"
)

// getServerURL 获取服务器 URL：环境变量优先，其次配置文件
func getServerURL() string {
	if serverURL := os.Getenv("CT_SERVER_URL"); serverURL != "" {
		return serverURL
	}

	cfg, err := config.Load("")
	if err == nil && cfg.Server.Enabled {
		host := cfg.Server.Host
		if host == "" || host == "0.0.0.0" {
			host = "localhost"
		}
		return fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
	}
	return cli.DefaultServerURL
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(cli.NewClient(getServerURL()), os.Stdout, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		name := strings.ToLower(os.Args[1])
		if name == "--help" || name == "-h" {
			name = "help"
		}
		if err := app.Exec(ctx, name, os.Args[2:]); err != nil && !errors.Is(err, cli.ErrExit) {
			fmt.Fprintf(os.Stderr, "错误: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("ct-cli - demotools 命令行客户端")
	fmt.Println("输入 'help' 查看帮助，输入 'exit' 或 'quit' 退出")
	fmt.Println()
	if err := app.Interactive(ctx, os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "读取输入时出错: %v\n", err)
		os.Exit(1)
	}
}
