// Command wind is a thin CLI over the client façade (spec.md §4.7),
// exposing discover/call/subscribe as subcommands. It is deliberately
// minimal plumbing: every subcommand just builds a client.Client and
// prints what comes back.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/mvishiu11/WIND/client"
	"github.com/mvishiu11/WIND/message"
	"github.com/mvishiu11/WIND/value"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "discover":
		runDiscover(os.Args[2:])
	case "call":
		runCall(os.Args[2:])
	case "subscribe":
		runSubscribe(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: wind <discover|call|subscribe> [flags]")
}

func runDiscover(args []string) {
	fs := pflag.NewFlagSet("discover", pflag.ExitOnError)
	registryAddr := fs.String("registry", "127.0.0.1:7001", "registry address")
	pattern := fs.String("pattern", "", "glob service-name pattern, e.g. SENSOR/*/TEMP")
	fs.Parse(args)

	c := client.New(*registryAddr, 5*time.Second, 5, nil)
	found, err := c.Discover(context.Background(), *pattern)
	if err != nil {
		fmt.Fprintln(os.Stderr, "discover:", err)
		os.Exit(1)
	}
	for _, info := range found {
		fmt.Printf("%s\t%s\t%s\n", info.Name, info.Kind, info.Endpoint)
	}
}

func runCall(args []string) {
	fs := pflag.NewFlagSet("call", pflag.ExitOnError)
	registryAddr := fs.String("registry", "127.0.0.1:7001", "registry address")
	service := fs.String("service", "", "service name")
	method := fs.String("method", "", "method name")
	paramsJSON := fs.String("params", "{}", "call parameters as a flat JSON object of numbers/strings/bools")
	timeout := fs.Duration("timeout", 10*time.Second, "per-call timeout")
	fs.Parse(args)

	params, err := paramsFromJSON(*paramsJSON)
	if err != nil {
		fmt.Fprintln(os.Stderr, "params:", err)
		os.Exit(2)
	}

	c := client.New(*registryAddr, *timeout, 5, nil)
	result, err := c.Call(context.Background(), *service, *method, params, *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, "call:", err)
		os.Exit(1)
	}
	fmt.Println(formatValue(result))
}

func runSubscribe(args []string) {
	fs := pflag.NewFlagSet("subscribe", pflag.ExitOnError)
	registryAddr := fs.String("registry", "127.0.0.1:7001", "registry address")
	service := fs.String("service", "", "service name")
	mode := fs.String("mode", "on_change", "once|on_change|periodic")
	periodMs := fs.Uint64("period-ms", 1000, "period in milliseconds, only used when mode=periodic")
	fs.Parse(args)

	subMode, err := parseMode(*mode, *periodMs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "mode:", err)
		os.Exit(2)
	}

	c := client.New(*registryAddr, 5*time.Second, 5, nil)
	sub, err := c.Subscribe(context.Background(), *service, subMode, message.DefaultQos())
	if err != nil {
		fmt.Fprintln(os.Stderr, "subscribe:", err)
		os.Exit(1)
	}
	defer sub.Close()

	for {
		v, err := sub.Next(context.Background())
		if err != nil {
			fmt.Fprintln(os.Stderr, "subscribe:", err)
			os.Exit(1)
		}
		fmt.Println(formatValue(v))
	}
}

func parseMode(mode string, periodMs uint64) (message.SubscriptionMode, error) {
	switch mode {
	case "once":
		return message.SubscriptionMode{Mode: message.ModeOnce}, nil
	case "on_change":
		return message.SubscriptionMode{Mode: message.ModeOnChange}, nil
	case "periodic":
		return message.SubscriptionMode{Mode: message.ModePeriodic, PeriodUs: periodMs * 1000}, nil
	default:
		return message.SubscriptionMode{}, fmt.Errorf("unknown mode %q", mode)
	}
}

// paramsFromJSON decodes a flat JSON object into a value.V Map, enough for
// CLI use; nested objects/arrays of mixed kinds are out of scope here.
func paramsFromJSON(s string) (value.V, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return value.V{}, err
	}
	keys := make([]string, 0, len(raw))
	vals := make([]value.V, 0, len(raw))
	for k, v := range raw {
		keys = append(keys, k)
		vals = append(vals, jsonToValue(v))
	}
	return value.Map(keys, vals), nil
}

func jsonToValue(v any) value.V {
	switch x := v.(type) {
	case bool:
		return value.Bool(x)
	case float64:
		return value.F64(x)
	case string:
		return value.String(x)
	case []any:
		vs := make([]value.V, len(x))
		for i, e := range x {
			vs[i] = jsonToValue(e)
		}
		return value.Array(vs...)
	default:
		return value.String(fmt.Sprintf("%v", x))
	}
}

func formatValue(v value.V) string {
	switch v.Kind {
	case value.KindBool:
		return fmt.Sprintf("%v", v.B)
	case value.KindI32:
		return fmt.Sprintf("%d", v.I32)
	case value.KindI64:
		return fmt.Sprintf("%d", v.I64)
	case value.KindF32:
		return fmt.Sprintf("%v", v.F32)
	case value.KindF64:
		return fmt.Sprintf("%v", v.F64)
	case value.KindString:
		return v.Str
	case value.KindBytes:
		return fmt.Sprintf("%x", v.Byt)
	case value.KindArray:
		out := "["
		for i, e := range v.Arr {
			if i > 0 {
				out += ", "
			}
			out += formatValue(e)
		}
		return out + "]"
	case value.KindMap:
		out := "{"
		for i, k := range v.MapKeys {
			if i > 0 {
				out += ", "
			}
			out += k + ": " + formatValue(v.MapVals[i])
		}
		return out + "}"
	default:
		return "<unknown>"
	}
}
