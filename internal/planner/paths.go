package planner

// secondaryPath полная копия спекулятивного стека, сохранённая на случай,
// если основной поиск не достигнет цели
type secondaryPath struct {
	steps       []PlannedStep
	advancement int
	penalty     int
	valid       bool
}

func (p *secondaryPath) clear() {
	p.steps = p.steps[:0]
	p.advancement = 0
	p.penalty = 0
	p.valid = false
}

func (p *secondaryPath) store(steps []PlannedStep, advancement, penalty int) {
	p.steps = append(p.steps[:0], steps...)
	p.advancement = advancement
	p.penalty = penalty
	p.valid = true
}

// acceptsGoodEnough заменяется при строго большем продвижении либо при
// равном продвижении и строго меньшем штрафе
func (p *secondaryPath) acceptsGoodEnough(advancement, penalty int) bool {
	if !p.valid {
		return true
	}
	if advancement != p.advancement {
		return advancement > p.advancement
	}
	return penalty < p.penalty
}

// acceptsLastResort заменяется только при строго меньшем штрафе
func (p *secondaryPath) acceptsLastResort(penalty int) bool {
	return !p.valid || penalty < p.penalty
}

// SaveGoodEnoughPath сохраняет стек вместе с текущим принятым шагом.
// advancement уменьшение времени пути до цели, сотые доли секунды.
func (c *PredictionContext) SaveGoodEnoughPath(advancement, penalty int) bool {
	if advancement <= 0 || !c.goodEnoughPath.acceptsGoodEnough(advancement, penalty) {
		return false
	}
	c.goodEnoughPath.store(c.steps.items[:c.topOfStackIndex+1], advancement, penalty)
	c.debug("сохранён good-enough путь: длина %d, продвижение %d, штраф %d", c.topOfStackIndex+1, advancement, penalty)
	return true
}

// SaveLastResortPath сохраняет стек без текущего (отклонённого) шага
func (c *PredictionContext) SaveLastResortPath(penalty int) bool {
	if c.topOfStackIndex < 1 || !c.lastResortPath.acceptsLastResort(penalty) {
		return false
	}
	c.lastResortPath.store(c.steps.items[:c.topOfStackIndex], 0, penalty)
	c.debug("сохранён last-resort путь: длина %d, штраф %d", c.topOfStackIndex, penalty)
	return true
}

// HasSecondaryPath есть ли сохранённый запасной путь
func (c *PredictionContext) HasSecondaryPath() bool {
	return c.goodEnoughPath.valid || c.lastResortPath.valid
}

// substituteSecondaryPath подставляет лучший запасной путь вместо стека и
// завершает поиск
func (c *PredictionContext) substituteSecondaryPath() bool {
	switch {
	case c.goodEnoughPath.valid:
		c.substitutedPath = &c.goodEnoughPath
		c.substitutedSource = PlanGoodEnough
	case c.lastResortPath.valid:
		c.substitutedPath = &c.lastResortPath
		c.substitutedSource = PlanLastResort
	default:
		return false
	}
	c.isCompleted = true
	return true
}
