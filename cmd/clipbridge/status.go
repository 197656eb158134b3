package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/protobuf/encoding/protojson"

	"go.klb.dev/clipbridge/internal/control"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the bridge state",
		Long: `Displays the guest agent state, the pending transfer references, the host
clipboard cache and the tasks registered on the guest message bus.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runStatus(v) },
	}

	f := cmd.Flags()
	f.Bool("json", false, "output raw JSON")
	addClientFlags(cmd)

	return cmd
}

func runStatus(v *viper.Viper) error {
	return withClient(v, func(ctx context.Context, c *control.Client) error {
		st, err := c.Status(ctx)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		if v.GetBool("json") {
			enc, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(st)
			if err != nil {
				return err
			}
			fmt.Println(string(enc))
			return nil
		}
		printStatus(st.AsMap(), v.GetString("socket"))
		return nil
	})
}

func printStatus(m map[string]any, socket string) {
	host, _ := m["host"].(map[string]any)
	ag, _ := m["agent"].(map[string]any)

	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Socket:\t%s\n", socket)
	fmt.Fprintf(w, "Backend:\t%s\n", m["backend"])
	fmt.Fprintf(w, "Uptime:\t%s\n", m["uptime"])
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Host clipboard:\t%s\t%v bytes\talphabet %s\tnotify %v\n",
		host["type"], host["length"], host["alphabet"], host["notifying"])
	fmt.Fprintf(w, "Agent:\t%s\towned %v\n", ag["state"], ag["owned"])
	fmt.Fprintf(w, "Refs:\tpaste %v\tcheck %v\tfetch %v\n", ag["paste_ref"], ag["check_ref"], ag["fetch_ref"])
	if at, ok := ag["check_at"].(string); ok {
		fmt.Fprintf(w, "Next check:\t%s\n", fmtUntil(at))
	}
	if c, ok := ag["content"].(map[string]any); ok {
		fmt.Fprintf(w, "Held:\t%s\t%v bytes\toffset %v\n", c["type"], c["length"], c["offset"])
	}
	if p, ok := ag["pushed"].(map[string]any); ok {
		fmt.Fprintf(w, "Last pushed:\t%s\t%v bytes\n", p["type"], p["length"])
	}
	if s, ok := ag["stats"].(map[string]any); ok {
		fmt.Fprintf(w, "Counters:\tclaims %v\tpushes %v\trestarts %v\tallocs %v\tfrees %v\n",
			s["claims"], s["pushes"], s["restarts"], s["allocs"], s["frees"])
	}
	_ = w.Flush()

	tasks, _ := m["tasks"].([]any)
	if len(tasks) == 0 {
		return
	}
	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "\tTASK\tNAME\n")
	_, _ = fmt.Fprintf(tw, "\t----\t----\n")
	for _, t := range tasks {
		tm, _ := t.(map[string]any)
		marker := ""
		if tm["task"] == ag["task"] {
			marker = "*"
		}
		id, _ := tm["task"].(float64)
		_, _ = fmt.Fprintf(tw, "%s\t%08x\t%s\n", marker, uint32(id), tm["name"])
	}
	_ = tw.Flush()
}

func fmtUntil(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	d := time.Until(t).Round(time.Millisecond)
	if d <= 0 {
		return "due"
	}
	return "in " + d.String()
}
