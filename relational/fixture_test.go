package relational_test

import (
	"strings"

	"github.com/zjrosen/kinship/relational"
)

// Person is the host type shared by the package tests. Every relation is an
// optional field so one type can describe the whole family.
type Person struct {
	relational.Searchable

	name string

	Mom           *Person
	Uncle         *Person
	You           *Person
	Sister        *Person
	Son           *Person
	Cousin        *Person
	GrandDaughter *Person
	GreatGrandSon *Person
	GrandNiece    *Person
}

func (p *Person) Name() string { return p.name }

func (p *Person) String() string { return p.name }

func newPerson(name string, init func(p *Person)) *Person {
	p := &Person{name: name}
	if init != nil {
		init(p)
	}
	return relational.MustApply(p)
}

type family struct {
	grandPa, mom, uncle, you, sister, son, cousin, grandNiece, grandDaughter, greatGrandSon *Person
}

// makeFamily builds:
//
//	GrandPa
//	├─ mom: Mom
//	│  ├─ you: You
//	│  │  └─ son: Son
//	│  │     └─ grandDaughter: GrandDaughter
//	│  │        └─ greatGrandSon: GreatGrandSon
//	│  └─ sister: Sister
//	│     └─ cousin: Cousin
//	│        └─ grandNiece: Niece
//	└─ uncle: Uncle
func makeFamily() family {
	var f family
	f.greatGrandSon = newPerson("GreatGrandSon", nil)
	f.grandDaughter = newPerson("GrandDaughter", func(p *Person) { p.GreatGrandSon = f.greatGrandSon })
	f.son = newPerson("Son", func(p *Person) { p.GrandDaughter = f.grandDaughter })
	f.you = newPerson("You", func(p *Person) { p.Son = f.son })
	f.grandNiece = newPerson("Niece", nil)
	f.cousin = newPerson("Cousin", func(p *Person) { p.GrandNiece = f.grandNiece })
	f.sister = newPerson("Sister", func(p *Person) { p.Cousin = f.cousin })
	f.mom = newPerson("Mom", func(p *Person) {
		p.You = f.you
		p.Sister = f.sister
	})
	f.uncle = newPerson("Uncle", nil)
	f.grandPa = newPerson("GrandPa", func(p *Person) {
		p.Mom = f.mom
		p.Uncle = f.uncle
	})
	return f
}

// names renders nodes for readable assertions.
func names(nodes []relational.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.(*Person).Name()
	}
	return out
}

func isGrand(n relational.Node) bool {
	p, ok := n.(*Person)
	return ok && strings.Contains(strings.ToLower(p.name), "grand")
}

func isMom(n relational.Node) bool {
	p, ok := n.(*Person)
	return ok && p.name == "Mom"
}
