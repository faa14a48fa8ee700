package domain

// Entity - контейнер компонентов. Поведения нет: сущность лишь
// группирует данные под одним ID.
type Entity struct {
	ID     EntityID
	Active bool

	// Компоненты (не больше одного экземпляра на вид)
	components map[ComponentKind]Component

	// Теги для быстрой выборки ("player", "hostile", "spawn_point")
	tags map[string]struct{}
}

// NewEntity создает сущность под заданным ID. В мир она попадет
// только на границе тика (см. engine.World).
func NewEntity(id EntityID) *Entity {
	return &Entity{
		ID:         id,
		Active:     true,
		components: make(map[ComponentKind]Component),
		tags:       make(map[string]struct{}),
	}
}

// --- КОМПОНЕНТЫ ---

// SetComponent привязывает компонент, заменяя существующий того же вида.
func (e *Entity) SetComponent(c Component) {
	e.components[c.Kind()] = c
}

// RemoveComponent отвязывает компонент. Возвращает удаленный компонент
// или nil, если его не было.
func (e *Entity) RemoveComponent(kind ComponentKind) Component {
	c, ok := e.components[kind]
	if !ok {
		return nil
	}
	delete(e.components, kind)
	return c
}

// Component возвращает компонент вида kind или nil.
func (e *Entity) Component(kind ComponentKind) Component {
	return e.components[kind]
}

// HasComponent проверяет наличие компонента вида kind.
func (e *Entity) HasComponent(kind ComponentKind) bool {
	_, ok := e.components[kind]
	return ok
}

// HasComponents проверяет наличие ВСЕХ перечисленных видов.
func (e *Entity) HasComponents(kinds ...ComponentKind) bool {
	for _, k := range kinds {
		if !e.HasComponent(k) {
			return false
		}
	}
	return true
}

// Kinds возвращает виды всех привязанных компонентов.
func (e *Entity) Kinds() []ComponentKind {
	kinds := make([]ComponentKind, 0, len(e.components))
	for k := range e.components {
		kinds = append(kinds, k)
	}
	return kinds
}

// --- ТИПИЗИРОВАННЫЕ ДОСТУПЫ (сахар для систем) ---

// Transform возвращает TransformComponent или nil.
func (e *Entity) Transform() *TransformComponent {
	if c, ok := e.components[KindTransform].(*TransformComponent); ok {
		return c
	}
	return nil
}

// Stats возвращает CharacterStatsComponent или nil.
func (e *Entity) Stats() *CharacterStatsComponent {
	if c, ok := e.components[KindCharacterStats].(*CharacterStatsComponent); ok {
		return c
	}
	return nil
}

// Combat возвращает CombatComponent или nil.
func (e *Entity) Combat() *CombatComponent {
	if c, ok := e.components[KindCombat].(*CombatComponent); ok {
		return c
	}
	return nil
}

// AI возвращает AIComponent или nil.
func (e *Entity) AI() *AIComponent {
	if c, ok := e.components[KindAI].(*AIComponent); ok {
		return c
	}
	return nil
}

// --- ТЕГИ ---

// AddTag добавляет тег.
func (e *Entity) AddTag(tag string) {
	e.tags[tag] = struct{}{}
}

// RemoveTag убирает тег (отсутствие тега - не ошибка).
func (e *Entity) RemoveTag(tag string) {
	delete(e.tags, tag)
}

// HasTag проверяет наличие тега.
func (e *Entity) HasTag(tag string) bool {
	_, ok := e.tags[tag]
	return ok
}

// Tags возвращает копию набора тегов.
func (e *Entity) Tags() []string {
	tags := make([]string, 0, len(e.tags))
	for t := range e.tags {
		tags = append(tags, t)
	}
	return tags
}

// --- СЕРИАЛИЗАЦИЯ ---

// Serialize выгружает сущность в плоскую запись для снапшота.
func (e *Entity) Serialize() Record {
	comps := make(Record, len(e.components))
	for kind, c := range e.components {
		comps[kind.String()] = map[string]any(c.Serialize())
	}
	return Record{
		"id":         e.ID,
		"active":     e.Active,
		"tags":       e.Tags(),
		"components": comps,
	}
}

// DeserializeEntity восстанавливает сущность из записи снапшота.
func DeserializeEntity(id EntityID, data Record) *Entity {
	e := NewEntity(id)
	e.Active = recBool(data, "active", true)

	if rawTags, ok := data["tags"].([]any); ok {
		for _, t := range rawTags {
			if s, ok := t.(string); ok {
				e.AddTag(s)
			}
		}
	} else if tags, ok := data["tags"].([]string); ok {
		for _, t := range tags {
			e.AddTag(t)
		}
	}

	for name, raw := range recRecord(data, "components") {
		kind := ParseKind(name)
		rec, _ := raw.(map[string]any)
		if c, err := DeserializeComponent(kind, rec); err == nil {
			e.SetComponent(c)
		}
	}
	return e
}
