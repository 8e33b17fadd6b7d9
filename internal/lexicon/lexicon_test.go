package lexicon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Привет, МИР!!! hello_world 42 — ёжик")
	assert.Equal(t, []string{"привет", "мир", "hello", "world", "42", "ёжик"}, got)
	assert.Empty(t, Tokenize("?!... 😡"))
}

func TestStemFoldsInflections(t *testing.T) {
	assert.Equal(t, Stem("кошка"), Stem("кошки"))
	assert.Equal(t, Stem("собака"), Stem("собаку"))
	assert.NotEqual(t, Stem("кошка"), Stem("собака"))
	assert.Equal(t, "", Stem(""))
}

func TestStems(t *testing.T) {
	set := Stems("Кошки спят")
	assert.True(t, set.Has(Stem("кошка")))
	assert.False(t, set.Has(Stem("собака")))
}

func TestDistinct(t *testing.T) {
	assert.Equal(t, []string{"да", "нет"}, Distinct("да ДА нет да"))
}

func TestRestricted(t *testing.T) {
	r := NewRestricted(nil)
	assert.True(t, r.Match("блядство"))
	assert.True(t, r.Match("ГОВНО"))
	assert.False(t, r.Match("корабля"))
	assert.False(t, r.Match("тебя"))
	assert.Equal(t, 2, r.Count("ну ты мудак и говнюк"))

	custom := NewRestricted([]string{" Foo ", ""})
	assert.Equal(t, []string{"foo"}, custom.Roots())
	assert.True(t, custom.Match("xFOOx"))

	var none *Restricted
	assert.False(t, none.Match("говно"))
}
