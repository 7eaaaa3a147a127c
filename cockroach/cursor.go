package cockroach

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/nicolasparada/go-errs"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/linkupapp/linkup/types"
)

const defaultPageSize = 25

// Cursor pins a position inside an ordered listing. Value is the
// order column of the last seen item, ID breaks ties.
type Cursor[T any] struct {
	ID    string `msgpack:"i"`
	Value T      `msgpack:"v,omitempty"`
}

func EncodeCursor[T any](cursor Cursor[T]) (string, error) {
	b, err := msgpack.Marshal(cursor)
	if err != nil {
		return "", fmt.Errorf("msgpack marshal cursor: %w", err)
	}

	return base58.Encode(b), nil
}

func DecodeCursor[T any](s string) (Cursor[T], error) {
	var c Cursor[T]

	b := base58.Decode(s)
	if err := msgpack.Unmarshal(b, &c); err != nil {
		return c, errs.InvalidArgumentError("invalid cursor")
	}

	return c, nil
}

type PageArgs[T any] struct {
	First *uint
	After *Cursor[T]
}

func ParsePageArgs[T any](in types.PageArgs) (PageArgs[T], error) {
	var out PageArgs[T]

	if in.After != nil {
		after, err := DecodeCursor[T](*in.After)
		if err != nil {
			return out, fmt.Errorf("decode after cursor: %w", err)
		}

		out.After = &after
	}

	out.First = in.First

	return out, nil
}

func (args PageArgs[T]) Limit() uint {
	return or(args.First, defaultPageSize)
}

// applyPageInfo trims the over-fetched row off the page and encodes
// the end cursor. Queries fetch Limit()+1 rows so the extra row tells
// whether a next page exists.
func applyPageInfo[I, C any](page *types.Page[I], pageArgs PageArgs[C], cursorFunc func(item I) Cursor[C]) error {
	l := uint(len(page.Items))
	if l == 0 {
		return nil
	}

	first := pageArgs.Limit()
	page.PageInfo.HasNextPage = l > first
	if page.PageInfo.HasNextPage {
		page.Items = page.Items[:first]
	}

	endCursor := cursorFunc(page.Items[len(page.Items)-1])

	c, err := EncodeCursor(endCursor)
	if err != nil {
		return fmt.Errorf("encode end cursor: %w", err)
	}
	page.PageInfo.EndCursor = &c

	return nil
}

func or[T any](a *T, b T) T {
	if a != nil {
		return *a
	}

	return b
}
