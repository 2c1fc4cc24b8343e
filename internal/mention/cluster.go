package mention

// Cluster is an order-preserving set of mentions believed to co-refer.
// Every mutation keeps the mention side in step: a member always lists the
// cluster among its Clusters().
type Cluster struct {
	mentions []*Mention
	index    map[*Mention]bool
}

// NewCluster creates a cluster holding the given mentions.
func NewCluster(mentions ...*Mention) *Cluster {
	c := &Cluster{index: make(map[*Mention]bool)}
	for _, m := range mentions {
		c.Add(m)
	}
	return c
}

// Add appends m if it is not already a member. Adding twice is a no-op.
func (c *Cluster) Add(m *Mention) {
	if c.index[m] {
		return
	}
	c.index[m] = true
	c.mentions = append(c.mentions, m)
	m.addCluster(c)
}

// AddAll adds every member of other to c.
func (c *Cluster) AddAll(other *Cluster) {
	for _, m := range other.mentions {
		c.Add(m)
	}
}

// Contains reports membership.
func (c *Cluster) Contains(m *Mention) bool { return c.index[m] }

// Size is the number of members.
func (c *Cluster) Size() int { return len(c.mentions) }

// Mentions returns the members in insertion order.
func (c *Cluster) Mentions() []*Mention { return c.mentions }

// Intersects reports whether c and other share at least one mention.
func (c *Cluster) Intersects(other *Cluster) bool {
	small, large := c, other
	if len(small.mentions) > len(large.mentions) {
		small, large = large, small
	}
	for _, m := range small.mentions {
		if large.index[m] {
			return true
		}
	}
	return false
}

// Dissolve detaches every member from c and empties it.
func (c *Cluster) Dissolve() {
	for _, m := range c.mentions {
		m.removeCluster(c)
	}
	c.mentions = nil
	c.index = make(map[*Mention]bool)
}

// Link applies the sieve union rule to a compatible pair and returns the
// cluster that received the link, appending to *clusters when a new one is
// created:
//
//   - neither mention clustered: a new cluster holds both
//   - only one clustered: the other joins that cluster
//   - both clustered: a's first cluster absorbs b; the two clusters are
//     not merged here
func Link(clusters *[]*Cluster, a, b *Mention) *Cluster {
	ca, cb := a.Cluster(), b.Cluster()
	switch {
	case ca == nil && cb == nil:
		c := NewCluster(a, b)
		*clusters = append(*clusters, c)
		return c
	case ca == nil:
		cb.Add(a)
		return cb
	default:
		ca.Add(b)
		return ca
	}
}
