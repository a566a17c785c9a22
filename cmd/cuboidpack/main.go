// Command cuboidpack compresses and inspects N-dimensional integer arrays
// stored in cuboidpack's maximal-cuboid format.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/eniallator/cuboidpack/cuboid"
)

func main() {
	log.SetFlags(0)

	app := cli.NewApp()
	app.Name = "cuboidpack"
	app.Usage = "compress, decompress, and inspect N-dimensional integer arrays"
	app.Version = strconv.Itoa(cuboid.Version)
	app.Commands = []cli.Command{
		compressCommand,
		decompressCommand,
		inspectCommand,
		demoCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("cuboidpack: %v", err)
	}
}

var compressCommand = cli.Command{
	Name:      "compress",
	Usage:     "compress a JSON-encoded nested array into a cuboidpack file",
	ArgsUsage: "<input.json> <output.cuboid>",
	Flags: []cli.Flag{
		cli.StringSliceFlag{
			Name:  "meta",
			Usage: "user metadata record as key=value, may be repeated",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return errors.New("compress requires exactly two arguments: <input.json> <output.cuboid>")
		}
		data, err := readJSONArray(c.Args().Get(0))
		if err != nil {
			return errors.Wrap(err, "reading input")
		}

		meta, err := parseMetaFlags(c.StringSlice("meta"))
		if err != nil {
			return err
		}

		if err := cuboid.CompressToFile(c.Args().Get(1), data, meta); err != nil {
			return errors.Wrap(err, "compressing")
		}
		return nil
	},
}

var decompressCommand = cli.Command{
	Name:      "decompress",
	Usage:     "decompress a cuboidpack file back into a JSON-encoded nested array",
	ArgsUsage: "<input.cuboid> <output.json>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 2 {
			return errors.New("decompress requires exactly two arguments: <input.cuboid> <output.json>")
		}
		data, meta, err := cuboid.DecompressFromFile(c.Args().Get(0))
		if err != nil {
			return errors.Wrap(err, "decompressing")
		}

		if len(meta) > 0 {
			log.Printf("metadata: %v", meta)
		}
		return writeJSONArray(c.Args().Get(1), data)
	},
}

var inspectCommand = cli.Command{
	Name:      "inspect",
	Usage:     "print the shape, default value, entry count, and metadata of a cuboidpack file",
	ArgsUsage: "<input.cuboid>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return errors.New("inspect requires exactly one argument: <input.cuboid>")
		}
		path := c.Args().Get(0)
		raw, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "reading file")
		}
		decoded, err := cuboid.DecodeFileBytes(raw)
		if err != nil {
			return errors.Wrap(err, "decoding file")
		}
		cl, meta, err := cuboid.Deserialise(decoded)
		if err != nil {
			return errors.Wrap(err, "parsing")
		}

		fmt.Printf("shape: %v\n", cl.Shape)
		fmt.Printf("default value: %d\n", cl.DefaultValue)
		fmt.Printf("entries: %d\n", len(cl.Entries))
		if len(meta) > 0 {
			fmt.Println("metadata:")
			for k, v := range meta {
				fmt.Printf("  %s = %s\n", k, v)
			}
		}
		return nil
	},
}

var demoCommand = cli.Command{
	Name:  "demo",
	Usage: "build a small sample array, round-trip it through the format, and report on each stage",
	Action: func(c *cli.Context) error {
		shape := []int{3, 4, 5}
		data := buildDemoArray(shape)
		meta := map[string]string{"foo": "bar baz", "hello world!": "this is a test"}

		fmt.Printf("input shape: %v\nmetadata: %v\n\n", shape, meta)

		cl, err := cuboid.Compress(data)
		if err != nil {
			return errors.Wrap(err, "compressing")
		}
		fmt.Printf("compressed: default=%d entries=%d\n\n", cl.DefaultValue, len(cl.Entries))

		payload := cuboid.Serialise(cl, meta)
		fmt.Printf("serialised: %d bytes\n\n", len(payload))

		gotCl, gotMeta, err := cuboid.Deserialise(payload)
		if err != nil {
			return errors.Wrap(err, "deserialising")
		}
		fmt.Printf("deserialised metadata: %v\n\n", gotMeta)

		decompressed := cuboid.Decompress(gotCl)
		fmt.Printf("decompressed: %v\n", decompressed)
		return nil
	},
}

// buildDemoArray mirrors the reference implementation's sample generator:
// cell n (in row-major order) holds 2 * ((n / shape[len-1]) % shape[len-2]).
func buildDemoArray(shape []int) any {
	var build func(dims []int, base int) any
	build = func(dims []int, base int) any {
		if len(dims) == 1 {
			row := make([]any, dims[0])
			for i := 0; i < dims[0]; i++ {
				n := base + i
				row[i] = 2 * ((n / shape[len(shape)-1]) % shape[len(shape)-2])
			}
			return row
		}
		inner := productInts(dims[1:])
		out := make([]any, dims[0])
		for i := 0; i < dims[0]; i++ {
			out[i] = build(dims[1:], base+i*inner)
		}
		return out
	}
	return build(shape, 0)
}

func productInts(xs []int) int {
	n := 1
	for _, x := range xs {
		n *= x
	}
	return n
}

// readJSONArray reads a JSON file holding an arbitrarily nested array of
// integers and converts it into the any-typed ([]any of []any/int)
// representation cuboid.Compress expects.
func readJSONArray(path string) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return toIntArray(v)
}

// toIntArray recursively converts encoding/json's generic decoding (float64
// leaves, []any sequences) into the int-leaf representation cuboid expects.
func toIntArray(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		if x != float64(int(x)) {
			return nil, errors.Errorf("non-integer leaf value %v", x)
		}
		return int(x), nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			converted, err := toIntArray(item)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		return nil, errors.Errorf("unsupported JSON element %v (%T)", v, v)
	}
}

func writeJSONArray(path string, data any) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "encoding output")
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return errors.Wrap(err, "writing output")
	}
	return nil
}

func parseMetaFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	meta := make(map[string]string, len(flags))
	for _, f := range flags {
		k, v, ok := strings.Cut(f, "=")
		if !ok {
			return nil, errors.Errorf("invalid --meta value %q, want key=value", f)
		}
		meta[k] = v
	}
	return meta, nil
}
