package ipc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/justapithecus/peerdialog/filter"
	"github.com/justapithecus/peerdialog/types"
)

// Argument flags understood by the peer.
const (
	FlagAppName = "--appname"
	FlagPrompt  = "--prompt"
	FlagLoc     = "--loc"
	FlagTitle   = "--title"
	FlagPath    = "--path"
	FlagFilter  = "--filter"
	FlagDebug   = "--debug"
)

// FlagUIMainThread asks the peer to keep its widget on the process main
// thread. It is a bare flag and precedes the request pairs.
const FlagUIMainThread = "--ui-main-thread"

// EncodeArgs serializes req into the peer argument vector. Filters use
// their raw extensions, never the permuted patterns.
func EncodeArgs(req *Request) []string {
	var args []string
	if req.AppName != "" {
		args = append(args, FlagAppName, req.AppName)
	}
	args = append(args, FlagPrompt, req.Mode.Keyword())
	if req.Anchor != nil {
		args = append(args, FlagLoc, req.Anchor.String())
	}
	if req.Title != "" {
		args = append(args, FlagTitle, req.Title)
	}
	if req.InitialPath != "" {
		args = append(args, FlagPath, req.InitialPath)
	}
	for _, f := range req.Filters {
		args = append(args, FlagFilter, f.String())
	}
	if req.TraceLevel > 0 {
		args = append(args, FlagDebug, strconv.Itoa(req.TraceLevel))
	}
	return args
}

// DecodeArgs parses an argument vector produced by EncodeArgs. Leading
// bare platform flags such as FlagUIMainThread are skipped.
func DecodeArgs(args []string) (*Request, error) {
	for len(args) > 0 && args[0] == FlagUIMainThread {
		args = args[1:]
	}
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("%w: malformed arguments (odd count %d)", types.ErrInvalidArgument, len(args))
	}

	req := &Request{}
	for i := 0; i < len(args); i += 2 {
		flag, value := args[i], args[i+1]
		switch flag {
		case FlagAppName:
			req.AppName = value
		case FlagPrompt:
			mode, err := types.ParseMode(value)
			if err != nil {
				return nil, fmt.Errorf("malformed arguments (bad prompt): %w", err)
			}
			req.Mode = mode
		case FlagLoc:
			pt, err := parsePoint(value)
			if err != nil {
				return nil, err
			}
			req.Anchor = pt
		case FlagTitle:
			req.Title = value
		case FlagPath:
			req.InitialPath = value
		case FlagFilter:
			f, err := filter.Parse(value)
			if err != nil {
				return nil, fmt.Errorf("malformed arguments (bad filter): %w", err)
			}
			req.Filters = append(req.Filters, f)
		case FlagDebug:
			level, err := strconv.Atoi(value)
			if err != nil || level < 0 {
				return nil, fmt.Errorf("%w: malformed arguments (bad debug level %q)", types.ErrInvalidArgument, value)
			}
			req.TraceLevel = level
		default:
			return nil, fmt.Errorf("%w: malformed arguments (unknown flag %q)", types.ErrInvalidArgument, flag)
		}
	}

	if req.Mode == 0 {
		return nil, fmt.Errorf("%w: missing prompt argument", types.ErrInvalidArgument)
	}
	return req, nil
}

func parsePoint(s string) (*types.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed location %q", types.ErrInvalidArgument, s)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(xs))
	y, errY := strconv.Atoi(strings.TrimSpace(ys))
	if errX != nil || errY != nil {
		return nil, fmt.Errorf("%w: malformed location %q", types.ErrInvalidArgument, s)
	}
	return &types.Point{X: x, Y: y}, nil
}
