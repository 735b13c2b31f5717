/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package goja provides an expression interpreter for guards and
// updates based on Goja, which is a Go implementation of ECMAScript
// 5.1+.
//
// See https://github.com/dop251/goja.
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Comcast/tandem/core"
	"github.com/Comcast/tandem/match"
	"github.com/Comcast/tandem/util"

	"github.com/dop251/goja"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Eval if the evaluation takes
	// longer than the interpreter's Timeout.
	Interrupted = errors.New(InterruptedMessage)

	// DefaultTimeout is used when an Interpreter's Timeout is
	// zero.
	DefaultTimeout = time.Second

	// Epoch is what Date.now() and new Date() see.
	Epoch = time.Unix(0, 0).UTC()

	// RandSeed seeds Math.random() for each evaluation.
	RandSeed int64 = 1
)

// init adds an Interpreter as one of the DefaultInterpreters.
func init() {
	core.DefaultInterpreters["goja"] = NewInterpreter()
}

// Interpreter implements core.Interpreter using Goja.
//
// A source is either a string, which is an expression, or a map with
// a "code" property, which is a function body that must return the
// result.  A map can also have "requires", which lists libraries
// that are prepended to the code.
//
// In the code, each variable in scope is a global.  The variables
// are also at _.vars, which helps with names that aren't
// identifiers.
type Interpreter struct {
	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// Timeout bounds one evaluation.
	Timeout time.Duration

	// LibraryProvider resolves library names.  If nil,
	// DefaultLibraryProvider is used.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// ProvideLibrary resolves the library name into a library.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a library provider that supports
// names that are URLs with protocols of "file", "http", and "https".
// File names are relative to the given directory.
//
// Libraries are only fetched at compile time.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			filename := filepath.Clean(parts[1])
			if strings.HasPrefix(filename, "..") {
				return "", fmt.Errorf("library '%s' is outside %s", name, dir)
			}
			bs, err := os.ReadFile(filepath.Join(dir, filename))
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequestWithContext(ctx, "GET", name, nil)
			if err != nil {
				return "", err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("library fetch status %s %d",
					resp.Status, resp.StatusCode)
			}
			bs, err := io.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func wrapExpr(src string) string {
	return fmt.Sprintf("(function() {\nreturn (\n%s\n);\n}());\n", src)
}

func wrapBody(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// parseSource looks into the given map to try to find "requires" and
// "code" properties.
func parseSource(vv map[string]interface{}) (code string, libs []string, err error) {
	x, have := vv["code"]
	if !have {
		err = errors.New("no Goja code")
		return
	}
	if s, is := x.(string); is {
		code = s
	} else {
		err = errors.New("bad Goja code")
		return
	}

	switch vv := vv["requires"].(type) {
	case nil:
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		libs = make([]string, 0, len(vv))
		for _, x := range vv {
			s, is := x.(string)
			if !is {
				err = fmt.Errorf("bad library (%T)", x)
				return
			}
			libs = append(libs, s)
		}
	default:
		err = fmt.Errorf("bad requires (%T)", vv)
	}

	return
}

// AsSource returns the code and libraries of the given source.  body
// is true if the code is a function body rather than an expression.
func AsSource(src interface{}) (code string, libs []string, body bool, err error) {
	switch vv := src.(type) {
	case string:
		code = vv
		return
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			str, ok := k.(string)
			if !ok {
				err = fmt.Errorf("bad src key (%T)", k)
				return
			}
			m[str] = v
		}
		code, libs, err = parseSource(m)
		return code, libs, true, err
	case map[string]interface{}:
		code, libs, err = parseSource(vv)
		return code, libs, true, err
	default:
		err = fmt.Errorf("bad Goja source (%T)", src)
		return
	}
}

// Compile compiles the source into an Expr.
//
// This method can block if the interpreter's library provider blocks
// in order to obtain external libraries.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (core.Expr, error) {
	code, libs, body, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	if body {
		code = wrapBody(code)
	} else {
		code = wrapExpr(code)
	}

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	code = libsSrc + code

	p, err := goja.Compile("", code, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, code)
	}

	return &Expr{
		i:       i,
		program: p,
	}, nil
}

// Expr is a compiled Goja program.  Each evaluation gets a fresh
// runtime, so nothing leaks from one evaluation to the next.
type Expr struct {
	i       *Interpreter
	program *goja.Program
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

func export(x interface{}) interface{} {
	if v, is := x.(goja.Value); is {
		return v.Export()
	}
	return x
}

// Eval implements core.Expr.
//
// The following properties are available from the runtime at _.
//
//	vars: the map of the variables in scope.
//	esc(s): URL query-escape the given string.
//	match(pat, obj): Run the pattern matcher, which returns
//	  bindings or null.
//	log(x): Log x (when util.Logging is on).
//
// For testing only:
//
//	sleep(ms): sleep for the given number of milliseconds.
//
// The Testing flag must be set to see sleep().
//
// Math.random() and the clock are fixed per evaluation (see RandSeed
// and Epoch), so equal Valuations give equal results.
func (e *Expr) Eval(vs *core.Valuation) (core.Value, error) {
	o := goja.New()
	o.SetRandSource(rand.New(rand.NewSource(RandSeed)).Float64)
	o.SetTimeSource(func() time.Time { return Epoch })

	vars := make(map[string]interface{}, vs.Len())
	for name, v := range vs.Map() {
		x := core.Export(v)
		vars[name] = x
		if err := o.Set(name, x); err != nil {
			return nil, err
		}
	}

	env := map[string]interface{}{
		"vars": vars,
	}

	if e.i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	env["esc"] = func(x interface{}) interface{} {
		s, is := export(x).(string)
		if !is {
			protest(o, "not a string")
		}
		return url.QueryEscape(s)
	}

	env["log"] = func(x interface{}) interface{} {
		x = export(x)
		js, err := json.Marshal(&x)
		if err != nil {
			util.Logf("goja.log (can't marshal: %s)", err)
		} else {
			util.Logf("goja.log %s", js)
		}
		return x
	}

	env["match"] = func(pat, fact goja.Value) interface{} {
		p, err := core.ValueOf(pat.Export())
		if err != nil {
			protest(o, err.Error())
		}
		f, err := core.ValueOf(fact.Export())
		if err != nil {
			protest(o, err.Error())
		}
		bs, ok, err := match.Match(p, f, nil)
		if err != nil {
			protest(o, err.Error())
		}
		if !ok {
			return nil
		}
		acc := make(map[string]interface{}, len(bs))
		for k, v := range bs {
			acc[k] = core.Export(v)
		}
		return acc
	}

	if err := o.Set("_", env); err != nil {
		return nil, err
	}

	timeout := e.i.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithTimeout(context.Background(), timeout)
	go func() {
		<-ictx.Done()
		// If Eval calls cancel() after RunProgram returns, then
		// the interrupt is harmless because nobody will run
		// this runtime again.
		o.Interrupt(InterruptedMessage)
	}()

	v, err := o.RunProgram(e.program)
	cancel()

	if err != nil {
		return nil, evalError(err)
	}

	x := v.Export()
	if x == nil {
		return nil, &core.TypeError{Value: x, Want: "value"}
	}
	return core.ValueOf(x)
}

// evalError translates some Goja errors into core's errors.
func evalError(err error) error {
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		return Interrupted
	}
	var exc *goja.Exception
	if errors.As(err, &exc) {
		msg := exc.Value().String()
		const prefix, suffix = "ReferenceError: ", " is not defined"
		if strings.HasPrefix(msg, prefix) && strings.HasSuffix(msg, suffix) {
			return &core.UndeclaredVariable{
				Name: strings.TrimSuffix(strings.TrimPrefix(msg, prefix), suffix),
			}
		}
	}
	return err
}
