package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// App 命令行客户端，支持单次执行与交互模式
type App struct {
	registry *CommandRegistry
	out      io.Writer
}

// NewApp 创建客户端并注册全部命令
func NewApp(client *Client, out io.Writer, logger *zap.Logger) (*App, error) {
	registry := NewCommandRegistry()
	commands := []Command{
		NewHelpCommand(registry, out),
		NewExitCommand(out),
		NewMapCommand(out, logger),
		NewDiffTypeCommand(out, logger),
		NewJobsCommand(client, out),
		NewRunCommand(client, out),
	}
	for _, cmd := range commands {
		if err := registry.Register(cmd); err != nil {
			return nil, fmt.Errorf("failed to register command: %w", err)
		}
	}
	return &App{registry: registry, out: out}, nil
}

// Registry 返回命令注册表
func (a *App) Registry() *CommandRegistry {
	return a.registry
}

// Exec 执行一条命令
func (a *App) Exec(ctx context.Context, name string, args []string) error {
	cmd, ok := a.registry.Get(strings.ToLower(name))
	if !ok {
		return fmt.Errorf("未知命令: %s\n输入 'help' 查看所有可用命令", name)
	}
	return cmd.Execute(ctx, args)
}

// Interactive 逐行读取命令直到 exit 或输入结束
func (a *App) Interactive(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(a.out, "ct-cli> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		name, args := parseCommand(line)
		err := a.Exec(ctx, name, args)
		if errors.Is(err, ErrExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(a.out, "错误: %v\n", err)
		}
	}
	fmt.Fprintln(a.out)
	return scanner.Err()
}

// parseCommand 拆分命令与参数，命令名不区分大小写
func parseCommand(input string) (string, []string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil
	}
	return strings.ToLower(parts[0]), parts[1:]
}
