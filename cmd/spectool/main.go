package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/util"

	"github.com/jsccast/yaml"
)

func main() {

	if len(os.Args) < 2 {
		Usage()
		os.Exit(1)
	}

	if os.Getenv("SPECTOOL_LOG") != "" {
		util.Logging = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch os.Args[1] {
	case "expand":
		fs := (&MacroExpander{}).Flags()
		if err := fs.Parse(os.Args[2:]); err != nil {
			die(err)
		}
		bs, err := io.ReadAll(os.Stdin)
		if err != nil {
			die(err)
		}
		var x interface{}
		if err = yaml.Unmarshal(bs, &x); err != nil {
			die(err)
		}

		if x, err = MacroExpand(x, macroDir); err != nil {
			die(err)
		}

		if bs, err = yaml.Marshal(&x); err != nil {
			die(err)
		}

		fmt.Printf("%s\n", bs)

	case "yamltojson":
		pretty := false

		switch len(os.Args) {
		case 2:
		case 3:
			switch os.Args[2] {
			case "-p":
				pretty = true
			default:
				die(fmt.Errorf("unsupported args: %v", os.Args[1:]))
			}
		default:
			die(fmt.Errorf("unsupported args: %v", os.Args[1:]))
		}

		s, err := readSpec(os.Stdin, yaml.Unmarshal)
		if err != nil {
			die(err)
		}

		var bs []byte
		if pretty {
			bs, err = json.MarshalIndent(&s, "  ", "  ")
		} else {
			bs, err = json.Marshal(&s)
		}
		if err != nil {
			die(err)
		}

		if _, err = os.Stdout.Write(bs); err != nil {
			die(err)
		}

	case "jsontoyaml":

		s, err := readSpec(os.Stdin, json.Unmarshal)
		if err != nil {
			die(err)
		}

		bs, err := yaml.Marshal(&s)
		if err != nil {
			die(err)
		}

		if _, err = os.Stdout.Write(bs); err != nil {
			die(err)
		}

	default:

		mod, have := Mods[os.Args[1]]
		if !have {
			fmt.Printf("Unknown subcommand \"%s\"\n", os.Args[1])
			Usage()
			os.Exit(1)
		}

		if err := mod.Flags().Parse(os.Args[2:]); err != nil {
			die(err)
		}

		s, err := readSpec(os.Stdin, yaml.Unmarshal)
		if err != nil {
			die(err)
		}

		if err := mod.F(ctx, s); err != nil {
			die(err)
		}

		if _, is := mod.(Reporter); is {
			return
		}

		bs, err := yaml.Marshal(&s)
		if err != nil {
			die(err)
		}

		if _, err = os.Stdout.Write(bs); err != nil {
			die(err)
		}
	}
}

func die(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

// readSpec reads a spec from r.  Empty input gives DefaultSpecYAML.
func readSpec(r io.Reader, unmarshal func([]byte, interface{}) error) (*core.Spec, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if len(bs) == 0 {
		bs = []byte(DefaultSpecYAML)
		unmarshal = yaml.Unmarshal
	}

	var s *core.Spec
	if err = unmarshal(bs, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func Usage() {
	fmt.Printf("Subcommands:\n\n")
	names := make([]string, 0, len(Mods))
	for name := range Mods {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		mod := Mods[name]
		mod.Flags().Usage()
		fmt.Println("  " + mod.Doc())
		fmt.Println()
	}
	(&MacroExpander{}).Flags().Usage()
	fmt.Println()
	fmt.Println("Usage of yamltojson:")
	// go vet says "Println call ends with newline"!
	fmt.Printf("  -p    pretty-print\n\n")
	fmt.Printf("Usage of jsontoyaml: (no arguments)\n\n")
}

var DefaultSpecYAML = `locations:
  start: {}
`
