package slicing

// commonDim marks the counter of the accumulation dimension.
const commonDim = -1

// coordCyclicCounter counts the slices along one axis, restarting when it reaches the limit.
type coordCyclicCounter struct {
	axis  int
	coord int
	limit int

	// snake counters bounce between 0 and limit-1 instead of restarting from 0.
	snake     bool
	direction int
}

func newCoordCyclicCounter(axis, limit int, snake bool) coordCyclicCounter {
	return coordCyclicCounter{axis: axis, limit: limit, snake: snake, direction: 1}
}

// advance moves to the next coordinate and returns whether the counter cycled. A snake counter that
// cycles stays at the edge and reverses its direction.
func (c *coordCyclicCounter) advance() (wrapped bool) {
	if c.snake {
		next := c.coord + c.direction
		if next < 0 || next >= c.limit {
			c.direction = -c.direction
			return true
		}
		c.coord = next
		return false
	}
	c.coord++
	if c.coord >= c.limit {
		c.coord = 0
		return true
	}
	return false
}

func (c *coordCyclicCounter) setToLimit() {
	c.coord = c.limit
}
