package cli

import (
	"context"
	"io"
)

func RunForTest(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	return newApp("test", in, out, errOut).run(ctx, args)
}

var Interactive = interactive
