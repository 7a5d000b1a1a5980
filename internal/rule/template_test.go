package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/inet/internal/inet"
)

func combinatorKinds() *inet.Kinds {
	k := inet.NewKinds()
	k.MustRegister("Con", 3)
	k.MustRegister("Dup", 3)
	k.MustRegister("Era", 1)
	return k
}

// commutation of Con and Dup: each side is copied onto the other's
// auxiliary ports.
func commuteTemplate(k *inet.Kinds) (*Template, error) {
	return NewTemplate(k, "con-dup", "Con", "Dup",
		[]AgentSpec{
			{Name: "d1", Kind: "Dup"}, {Name: "d2", Kind: "Dup"},
			{Name: "c1", Kind: "Con"}, {Name: "c2", Kind: "Con"},
		},
		[]Link{
			{"d1.0", "left.1"}, {"d2.0", "left.2"},
			{"c1.0", "right.1"}, {"c2.0", "right.2"},
			{"d1.1", "c1.1"}, {"d1.2", "c2.1"},
			{"d2.1", "c1.2"}, {"d2.2", "c2.2"},
		})
}

func TestTemplateRewrite(t *testing.T) {
	k := combinatorKinds()
	tmpl, err := commuteTemplate(k)
	require.NoError(t, err)

	con, _ := k.Lookup("Con")
	dup, _ := k.Lookup("Dup")
	assert.Equal(t, con.ID, tmpl.Left())
	assert.Equal(t, dup.ID, tmpl.Right())

	rw := &fakeRewriter{kinds: [2]inet.Kind{con, dup}}
	require.NoError(t, tmpl.Rewrite(rw))
	assert.Equal(t, []inet.KindID{dup.ID, dup.ID, con.ID, con.ID}, rw.made)
	require.Len(t, rw.links, 8)
	assert.Equal(t, "a1#1.0~left.1", rw.links[0])
	assert.Equal(t, "a1#1.1~a3#1.1", rw.links[4])
}

func TestTemplateRewriteNewFails(t *testing.T) {
	k := combinatorKinds()
	tmpl, err := commuteTemplate(k)
	require.NoError(t, err)
	con, _ := k.Lookup("Con")
	dup, _ := k.Lookup("Dup")

	rw := &fakeRewriter{kinds: [2]inet.Kind{con, dup}, failOn: con.ID}
	assert.Error(t, tmpl.Rewrite(rw))
}

func TestTemplateValidation(t *testing.T) {
	k := combinatorKinds()

	tests := []struct {
		name    string
		left    string
		right   string
		agents  []AgentSpec
		links   []Link
		wantErr string
	}{
		{
			name: "unknown left kind", left: "Nope", right: "Era",
			wantErr: `unknown kind "Nope"`,
		},
		{
			name: "boundary never linked", left: "Con", right: "Era",
			links:   []Link{{"left.1", "left.1"}},
			wantErr: "left.1 is linked 2 times",
		},
		{
			name: "missing boundary", left: "Con", right: "Era",
			agents:  []AgentSpec{{Name: "e", Kind: "Era"}},
			links:   []Link{{"e.0", "left.1"}},
			wantErr: "left.2 is never linked",
		},
		{
			name: "principal of pair", left: "Era", right: "Era",
			links:   []Link{{"left.0", "right.0"}},
			wantErr: "auxiliary ports",
		},
		{
			name: "undeclared agent", left: "Era", right: "Era",
			links:   []Link{{"x.0", "y.0"}},
			wantErr: "undeclared agent",
		},
		{
			name: "port out of range", left: "Era", right: "Era",
			agents:  []AgentSpec{{Name: "e", Kind: "Era"}},
			links:   []Link{{"e.1", "e.0"}},
			wantErr: "has ports 0..0",
		},
		{
			name: "malformed ref", left: "Era", right: "Era",
			links:   []Link{{"left", "right.1"}},
			wantErr: "malformed",
		},
		{
			name: "duplicate agent", left: "Era", right: "Era",
			agents:  []AgentSpec{{Name: "e", Kind: "Era"}, {Name: "e", Kind: "Era"}},
			wantErr: "declared twice",
		},
		{
			name: "reserved agent name", left: "Era", right: "Era",
			agents:  []AgentSpec{{Name: "left", Kind: "Era"}},
			wantErr: "invalid agent name",
		},
		{
			name: "new port unused", left: "Era", right: "Era",
			agents:  []AgentSpec{{Name: "c", Kind: "Con"}},
			links:   []Link{{"c.1", "c.2"}},
			wantErr: "c.0 is never linked",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTemplate(k, "bad", tt.left, tt.right, tt.agents, tt.links)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidTemplate)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTemplateRegister(t *testing.T) {
	k := combinatorKinds()
	tmpl, err := NewTemplate(k, "era-era", "Era", "Era", nil, nil)
	require.NoError(t, err)

	table := NewTable(k)
	require.NoError(t, tmpl.Register(table))
	era, _ := k.Lookup("Era")
	_, ok := table.Lookup(era.ID, era.ID)
	assert.True(t, ok)
}
