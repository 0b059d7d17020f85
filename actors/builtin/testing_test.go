package builtin_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vestledger/grant-actors/actors/builtin"
)

func TestMessageAccumulator(t *testing.T) {
	t.Run("basics", func(t *testing.T) {
		acc := &builtin.MessageAccumulator{}
		assert.True(t, acc.IsEmpty())

		acc.Add("one")
		assert.False(t, acc.IsEmpty())
		assert.Equal(t, []string{"one"}, acc.Messages())

		acc.Addf("tw%s", "o")
		acc.Addf("three")
		assert.Equal(t, []string{"one", "two", "three"}, acc.Messages())
	})

	t.Run("prefix", func(t *testing.T) {
		acc := &builtin.MessageAccumulator{}
		accA := acc.WithPrefix("A")

		accA.Add("aa")
		assert.Equal(t, []string{"Aaa"}, acc.Messages())
		assert.Equal(t, []string{"Aaa"}, accA.Messages())

		{
			accB := acc.WithPrefix("B")
			accB.Add("bb")
			assert.Equal(t, []string{"Aaa", "Bbb"}, acc.Messages())
		}

		accAB := accA.WithPrefix("%s", "B")
		accAB.Add("ab")
		assert.Equal(t, []string{"Aaa", "Bbb", "ABab"}, acc.Messages())
	})

	t.Run("merge", func(t *testing.T) {
		acc1 := &builtin.MessageAccumulator{}
		acc1.Addf("one")

		acc2 := &builtin.MessageAccumulator{}
		acc2.Addf("two")
		acc2.Addf("three")

		acc1.AddAll(acc2)
		assert.Equal(t, []string{"one", "two", "three"}, acc1.Messages())
	})

	t.Run("require", func(t *testing.T) {
		acc := &builtin.MessageAccumulator{}

		acc.Require(true, "fail")
		assert.True(t, acc.IsEmpty())

		acc.Require(false, "fail %d", 1)
		acc.RequireNoError(nil, "ok")
		acc.RequireNoError(errors.New("boom"), "load %s", "state")
		assert.Equal(t, []string{"fail 1", "load state: boom"}, acc.Messages())
	})
}
