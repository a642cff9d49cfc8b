package settlement

// Authorizer decide quem pode resolver e operar mercados. A política em si é
// externa; o motor só pergunta.
type Authorizer interface {
	CanResolve(identity string) bool
	CanOperate(identity string) bool
}

// AllowList autoriza por identidade. Lista vazia libera todo mundo.
type AllowList struct {
	resolvers map[string]struct{}
	operators map[string]struct{}
}

func NewAllowList(resolvers, operators []string) *AllowList {
	return &AllowList{resolvers: toSet(resolvers), operators: toSet(operators)}
}

func (a *AllowList) CanResolve(identity string) bool { return allowed(a.resolvers, identity) }

func (a *AllowList) CanOperate(identity string) bool { return allowed(a.operators, identity) }

func allowed(set map[string]struct{}, identity string) bool {
	if identity == "" {
		return false
	}
	if len(set) == 0 {
		return true
	}
	_, ok := set[identity]
	return ok
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}
