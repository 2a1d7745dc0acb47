// Command proflite-dump decodes a binary capture file and prints one
// line per packet, resolving interned string and location ids as they
// are defined.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/profiling-lite/profiling-lite-go/internal/wire"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"usage: %s [capture-file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	path := "capture.bin-trace"
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "proflite-dump: %s\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := dump(f, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "proflite-dump: %s: %s\n", path, err)
		os.Exit(1)
	}
}

func dump(in io.Reader, out io.Writer) error {
	r := wire.NewReader(in)
	strings := make(map[uint64]string)
	locations := make(map[uint64]wire.Location)

	str := func(id uint64) string {
		if s, ok := strings[id]; ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprintf("#%016x", id)
	}
	loc := func(id uint64) string {
		l, ok := locations[id]
		if !ok {
			return fmt.Sprintf("#%016x", id)
		}
		return fmt.Sprintf("%s (%s:%d)", str(l.NameID), str(l.FileID), l.Line)
	}

	for {
		p, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch p := p.(type) {
		case wire.Init:
			fmt.Fprintf(out, "init magic=%q version=%d\n", p.Magic[:], p.Version)
		case wire.StaticString:
			strings[p.ID] = p.Value
			fmt.Fprintf(out, "static_string id=%016x %q\n", p.ID, p.Value)
		case wire.Location:
			locations[p.ID] = p
			fmt.Fprintf(out, "location id=%016x name=%s function=%s file=%s line=%d\n",
				p.ID, str(p.NameID), str(p.FunctionID), str(p.FileID), p.Line)
		case wire.Stack:
			fmt.Fprintf(out, "stack begin=%x end=%x name=%q\n", p.Begin, p.End, p.Name)
		case wire.ThreadName:
			fmt.Fprintf(out, "thread_name tid=%d name=%q\n", p.TID, p.Name)
		case wire.ZoneStart:
			fmt.Fprintf(out, "zone_start corr=%x tid=%d ts=%d loc=%s\n",
				p.Corr, p.TID, p.Timestamp, loc(p.LocationID))
		case wire.ZoneEnd:
			fmt.Fprintf(out, "zone_end corr=%x ts=%d\n", p.Corr, p.Timestamp)
		case wire.ZoneDynamicName:
			fmt.Fprintf(out, "zone_dynamic_name corr=%x name=%q\n", p.Corr, p.Name)
		case wire.ZoneParamBool:
			fmt.Fprintf(out, "zone_param corr=%x name=%s value=%t\n", p.Corr, str(p.NameID), p.Value)
		case wire.ZoneParamInt:
			fmt.Fprintf(out, "zone_param corr=%x name=%s value=%d\n", p.Corr, str(p.NameID), p.Value)
		case wire.ZoneParamUint:
			fmt.Fprintf(out, "zone_param corr=%x name=%s value=%d\n", p.Corr, str(p.NameID), p.Value)
		case wire.ZoneParamDouble:
			fmt.Fprintf(out, "zone_param corr=%x name=%s value=%g\n", p.Corr, str(p.NameID), p.Value)
		case wire.ZoneParamString:
			fmt.Fprintf(out, "zone_param corr=%x name=%s value=%q\n", p.Corr, str(p.NameID), p.Value)
		case wire.ZoneFlow:
			fmt.Fprintf(out, "zone_flow corr=%x flow=%x\n", p.Corr, p.FlowID)
		case wire.ZoneFlowTerminate:
			fmt.Fprintf(out, "zone_flow_terminate corr=%x flow=%x\n", p.Corr, p.FlowID)
		case wire.ZoneCategory:
			fmt.Fprintf(out, "zone_category corr=%x name=%s\n", p.Corr, str(p.NameID))
		case wire.CounterTrack:
			fmt.Fprintf(out, "counter_track tid=%d name=%q\n", p.TID, p.Name)
		case wire.CounterValueInt:
			fmt.Fprintf(out, "counter_value tid=%d ts=%d value=%d\n", p.TID, p.Timestamp, p.Value)
		case wire.CounterValueDouble:
			fmt.Fprintf(out, "counter_value tid=%d ts=%d value=%g\n", p.TID, p.Timestamp, p.Value)
		}
	}
}
