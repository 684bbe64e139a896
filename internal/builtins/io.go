package builtins

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/rtfs-lang/rtfs/internal/errors"
	"github.com/rtfs-lang/rtfs/internal/eval"
)

// ioPrimitives are impure by construction and are never constant-folded or
// duplicated by the optimizer.
func ioPrimitives() []Primitive {
	return []Primitive{
		{
			Name:  "print",
			Arity: eval.Arity{Kind: eval.ArityAny},
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				for _, a := range args {
					fmt.Print(a.String())
				}
				return eval.Nil, nil
			},
		},
		{
			Name:  "println",
			Arity: eval.Arity{Kind: eval.ArityAny},
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				for i, a := range args {
					if i > 0 {
						fmt.Print(" ")
					}
					fmt.Print(a.String())
				}
				fmt.Println()
				return eval.Nil, nil
			},
		},
		{
			Name:  "open",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				path, err := asString(args[0], "open")
				if err != nil {
					return nil, err
				}
				f, oerr := os.Open(path)
				if oerr != nil {
					return nil, errors.IoError(oerr.Error())
				}
				res := &eval.ResourceValue{TypeTag: "File", State: eval.ResourceActive, Metadata: map[string]eval.Value{
					"path": &eval.StringValue{Value: path},
				}}
				res.ReleaseFn = func(r *eval.ResourceValue) error { return f.Close() }
				res.Metadata["__handle"] = &fileHandle{f: f}
				return res, nil
			},
		},
		{
			Name:  "read",
			Arity: eval.Arity{Kind: eval.ArityExact, Min: 1},
			Fn: func(args []eval.Value) (eval.Value, *errors.Report) {
				res, ok := args[0].(*eval.ResourceValue)
				if !ok || res.TypeTag != "File" {
					return nil, errors.TypeError("File resource", args[0].Type(), "read")
				}
				if res.State == eval.ResourceReleased {
					return nil, errors.ResourceError("use-after-release", "read on released File resource")
				}
				fh, _ := res.Metadata["__handle"].(*fileHandle)
				if fh == nil {
					return nil, errors.InternalError("File resource missing handle")
				}
				data, rerr := io.ReadAll(bufio.NewReader(fh.f))
				if rerr != nil {
					return nil, errors.IoError(rerr.Error())
				}
				return &eval.StringValue{Value: string(data)}, nil
			},
		},
	}
}

// fileHandle wraps *os.File as an opaque eval.Value-free payload stashed in
// a resource's metadata map; it is never itself exposed as an RTFS value.
type fileHandle struct{ f *os.File }

func (*fileHandle) Type() string   { return "__file_handle" }
func (*fileHandle) String() string { return "#<file>" }
