package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrExit 由 exit 命令返回，交互循环据此退出
var ErrExit = errors.New("exit requested")

// Command 命令接口
type Command interface {
	// Name 返回命令名称（主命令名）
	Name() string

	Aliases() []string

	Description() string

	// Usage 返回使用说明，可多行
	Usage() string

	Execute(ctx context.Context, args []string) error
}

// CommandRegistry 命令注册表
type CommandRegistry struct {
	commands map[string]Command
}

// NewCommandRegistry 创建新的命令注册表
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]Command),
	}
}

// Register 注册命令及其别名
func (r *CommandRegistry) Register(cmd Command) error {
	if _, exists := r.commands[cmd.Name()]; exists {
		return fmt.Errorf("command '%s' already registered", cmd.Name())
	}
	r.commands[cmd.Name()] = cmd

	for _, alias := range cmd.Aliases() {
		if _, exists := r.commands[alias]; exists {
			return fmt.Errorf("command alias '%s' already registered", alias)
		}
		r.commands[alias] = cmd
	}
	return nil
}

// Get 根据名称或别名获取命令
func (r *CommandRegistry) Get(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List 按名称排序返回所有命令
func (r *CommandRegistry) List() []Command {
	seen := make(map[string]bool)
	commands := make([]Command, 0)
	for _, cmd := range r.commands {
		if !seen[cmd.Name()] {
			seen[cmd.Name()] = true
			commands = append(commands, cmd)
		}
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].Name() < commands[j].Name() })
	return commands
}

// Help 返回帮助信息
func (r *CommandRegistry) Help() string {
	commands := r.List()
	if len(commands) == 0 {
		return "没有可用的命令"
	}

	var help strings.Builder
	help.WriteString("ct-cli - demotools 命令行客户端\n\n")
	help.WriteString("可用命令:\n")
	for _, cmd := range commands {
		help.WriteString(fmt.Sprintf("  %-12s - %s\n", cmd.Name(), cmd.Description()))
		if len(cmd.Aliases()) > 0 {
			help.WriteString(fmt.Sprintf("    (别名: %s)\n", strings.Join(cmd.Aliases(), ", ")))
		}
	}
	help.WriteString("\n输入 'help <command>' 查看特定命令的详细帮助\n")
	return help.String()
}

// HelpForCommand 返回特定命令的详细帮助
func (r *CommandRegistry) HelpForCommand(name string) string {
	cmd, ok := r.Get(name)
	if !ok {
		return fmt.Sprintf("未知命令: %s\n输入 'help' 查看所有可用命令", name)
	}

	var help strings.Builder
	help.WriteString(fmt.Sprintf("命令: %s\n", cmd.Name()))
	if len(cmd.Aliases()) > 0 {
		help.WriteString(fmt.Sprintf("别名: %s\n", strings.Join(cmd.Aliases(), ", ")))
	}
	help.WriteString(fmt.Sprintf("描述: %s\n", cmd.Description()))
	help.WriteString(fmt.Sprintf("用法: %s\n", cmd.Usage()))
	return help.String()
}
