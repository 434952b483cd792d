package tinyrel_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SimonWaldherr/tinyrel"
)

func Example() {
	sess, _ := tinyrel.Open("int", os.Stdout)
	ctx := context.Background()
	for _, cmd := range []string{
		`CREATE accounts KEY id FIELDS id:Int, name:String, balance:Float`,
		`INSERT id=1, name="Alice", balance=10.5 INTO accounts`,
		`INSERT id=2, name="Bob", balance=3 INTO accounts`,
		`SELECT * FROM accounts WHERE balance > 5 AND name != "Bob"`,
	} {
		if _, err := sess.Execute(ctx, cmd); err != nil {
			fmt.Println(err)
		}
	}
	_, err := sess.Execute(ctx, `DELETE 9 FROM accounts`)
	fmt.Println(err)
	// Output:
	// id	name	balance
	// 1	Alice	10.5
	// Error executing command: Specified key not found in table
}

func ExampleCreateAndExecute() {
	db := tinyrel.NewDatabase(tinyrel.StringKeyed)
	log := tinyrel.NewCommandLog()
	ctx := context.Background()
	_ = tinyrel.CreateAndExecute(ctx, `CREATE users KEY login FIELDS login:String, admin:Bool`, db, log, nil)
	_ = tinyrel.CreateAndExecute(ctx, `INSERT login="root", admin=true INTO users`, db, log, nil)
	_ = tinyrel.CreateAndExecute(ctx, `SELECT login FROM users WHERE admin`, db, log, os.Stdout)
	fmt.Println(log.Len())
	// Output:
	// login
	// root
	// 3
}

func TestOpen(t *testing.T) {
	sess, err := tinyrel.Open("string", nil)
	require.NoError(t, err)
	assert.Equal(t, tinyrel.StringKeyed, sess.DB.Kind())

	_, err = tinyrel.Open("float", nil)
	assert.Error(t, err)
}

func TestErrorMatching(t *testing.T) {
	sess, err := tinyrel.Open("int", nil)
	require.NoError(t, err)
	_, err = sess.Execute(context.Background(), `SELECT * FROM nope`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, tinyrel.ErrCommandParse))
	assert.True(t, errors.Is(err, tinyrel.ErrTableNotFound))

	var e *tinyrel.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "TableNotFound", tinyrel.CodeOf(err).String())
}
