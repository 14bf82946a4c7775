package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"demotools/internal/files"
	"demotools/internal/mapping"
	"demotools/internal/tasks"

	"go.uber.org/zap"
)

// MapCommand 在本地按规则映射输入文件
type MapCommand struct {
	out    io.Writer
	logger *zap.Logger
}

func NewMapCommand(out io.Writer, logger *zap.Logger) *MapCommand {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MapCommand{out: out, logger: logger}
}

func (c *MapCommand) Name() string { return "map" }

func (c *MapCommand) Aliases() []string { return []string{"m"} }

func (c *MapCommand) Description() string { return "按映射规则转换 CSV / Excel / JSON 文件" }

func (c *MapCommand) Usage() string {
	return "map <rules.yaml> <input> [output.json]\n" +
		"  input 支持 .csv .txt .xlsx .xlsm .json\n" +
		"  不提供 output 时结果输出到终端\n" +
		"  示例:\n" +
		"    map rules.yaml products.csv\n" +
		"    map rules.yaml products.xlsx out/products.json"
}

func (c *MapCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("用法: %s", c.Usage())
	}

	rules, err := mapping.LoadRules(args[0])
	if err != nil {
		return err
	}
	if err := mapping.Validate(rules); err != nil {
		return fmt.Errorf("invalid rules in %s: %w", args[0], err)
	}

	records, err := tasks.ReadRecords(args[1], "", "", 0, c.logger)
	if err != nil {
		return err
	}
	docs := tasks.MapRecords(rules, records, mapping.Options{Logger: c.logger})

	if len(args) > 2 {
		if err := files.WriteJSON(args[2], docs, 2, c.logger); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "已映射 %d 条记录 -> %s\n", len(docs), args[2])
		return nil
	}

	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal documents: %w", err)
	}
	fmt.Fprintln(c.out, string(data))
	return nil
}
