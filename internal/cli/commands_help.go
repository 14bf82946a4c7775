package cli

import (
	"context"
	"fmt"
	"io"
)

// HelpCommand 帮助命令
type HelpCommand struct {
	registry *CommandRegistry
	out      io.Writer
}

func NewHelpCommand(registry *CommandRegistry, out io.Writer) *HelpCommand {
	return &HelpCommand{registry: registry, out: out}
}

func (c *HelpCommand) Name() string { return "help" }

func (c *HelpCommand) Aliases() []string { return []string{"h", "?"} }

func (c *HelpCommand) Description() string { return "显示帮助信息" }

func (c *HelpCommand) Usage() string {
	return "help [command]\n" +
		"  如果不提供 command，显示所有命令的帮助\n" +
		"  如果提供 command，显示特定命令的详细帮助\n" +
		"  示例:\n" +
		"    help      # 显示所有命令\n" +
		"    help map  # 显示 map 命令的详细帮助"
}

func (c *HelpCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(c.out, c.registry.Help())
		return nil
	}
	fmt.Fprintln(c.out, c.registry.HelpForCommand(args[0]))
	return nil
}
