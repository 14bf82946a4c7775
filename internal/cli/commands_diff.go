package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"demotools/internal/files"
	"demotools/internal/resources"

	"go.uber.org/zap"
)

// DiffTypeCommand 比较两个自定义类型定义，输出更新动作
type DiffTypeCommand struct {
	out    io.Writer
	logger *zap.Logger
}

func NewDiffTypeCommand(out io.Writer, logger *zap.Logger) *DiffTypeCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiffTypeCommand{out: out, logger: logger}
}

func (c *DiffTypeCommand) Name() string { return "diff-type" }

func (c *DiffTypeCommand) Aliases() []string { return []string{"diff"} }

func (c *DiffTypeCommand) Description() string { return "比较两个类型定义文件并输出更新动作" }

func (c *DiffTypeCommand) Usage() string {
	return "diff-type <old.json> <new.json>\n" +
		"  示例:\n" +
		"    diff-type types/order-extra.json types/order-extra.v2.json"
}

func (c *DiffTypeCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("用法: %s", c.Usage())
	}

	var from, to resources.Type
	if err := files.ReadJSON(args[0], &from, c.logger); err != nil {
		return err
	}
	if err := files.ReadJSON(args[1], &to, c.logger); err != nil {
		return err
	}

	actions, warnings := resources.Diff(from, to)
	for _, w := range warnings {
		fmt.Fprintf(c.out, "警告: %s\n", w)
	}
	if len(actions) == 0 {
		fmt.Fprintln(c.out, "没有变化")
		return nil
	}

	data, err := json.MarshalIndent(actions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}
	fmt.Fprintln(c.out, string(data))
	return nil
}
