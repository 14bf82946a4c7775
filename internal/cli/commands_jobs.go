package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

const jobsEndpoint = "/api/v1/functions/jobs"

// JobsCommand 列出服务端注册的任务
type JobsCommand struct {
	client *Client
	out    io.Writer
}

func NewJobsCommand(client *Client, out io.Writer) *JobsCommand {
	return &JobsCommand{client: client, out: out}
}

func (c *JobsCommand) Name() string { return "jobs" }

func (c *JobsCommand) Aliases() []string { return []string{"ls"} }

func (c *JobsCommand) Description() string { return "列出服务端的导出 / 导入任务" }

func (c *JobsCommand) Usage() string { return "jobs" }

func (c *JobsCommand) Execute(ctx context.Context, args []string) error {
	return c.client.GetJSON(ctx, jobsEndpoint, c.out)
}

// RunCommand 立即执行服务端任务
type RunCommand struct {
	client *Client
	out    io.Writer
}

func NewRunCommand(client *Client, out io.Writer) *RunCommand {
	return &RunCommand{client: client, out: out}
}

func (c *RunCommand) Name() string { return "run" }

func (c *RunCommand) Aliases() []string { return []string{"r"} }

func (c *RunCommand) Description() string { return "立即执行一个任务（忽略调度与启用状态）" }

func (c *RunCommand) Usage() string {
	return "run <job>\n" +
		"  示例:\n" +
		"    run products-export"
}

func (c *RunCommand) Execute(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("用法: %s", c.Usage())
	}
	fmt.Fprintf(c.out, "正在执行任务 %s ...\n", args[0])
	return c.client.PostJSON(ctx, jobsEndpoint+"/"+url.PathEscape(args[0])+"/run", nil, c.out)
}
