// Package router 把请求路径解析为 (控制器, 动作, 参数)。
// 路由表在启动时静态注册，解析过程不依赖反射。
package router

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrNotFound 路径无法解析为已注册的动作
var ErrNotFound = errors.New("página não encontrada")

// Action 控制器动作，params 为路径中剩余的段
type Action func(c *gin.Context, params []string)

// Route 路由表中的一个动作
type Route struct {
	Controller   string
	Name         string
	Handler      Action
	MinParams    int
	MaxParams    int
	RequiresAuth bool
}

func (r Route) accepts(n int) bool {
	return n >= r.MinParams && n <= r.MaxParams
}

type controller struct {
	// index 没有第二段时的动作
	index string
	// fallback 第二段不是动作名时的动作，第二段作为参数
	fallback string
	actions  map[string]Route
}

// Table 静态路由表
type Table struct {
	prefixes map[string]*controller
	// root 路径为空时使用的前缀
	root string
}

// NewTable 创建路由表，root 为 "/" 对应的前缀
func NewTable(root string) *Table {
	return &Table{prefixes: make(map[string]*controller), root: root}
}

// Controller 注册一个控制器前缀
func (t *Table) Controller(prefix, index, fallback string) {
	t.prefixes[prefix] = &controller{index: index, fallback: fallback, actions: make(map[string]Route)}
}

// Handle 在已注册的控制器下注册动作
func (t *Table) Handle(route Route) {
	ctrl, ok := t.prefixes[route.Controller]
	if !ok {
		panic(fmt.Sprintf("router: controlador %q não registrado", route.Controller))
	}
	if route.MaxParams < route.MinParams {
		route.MaxParams = route.MinParams
	}
	ctrl.actions[route.Name] = route
}

// Resolution 解析结果
type Resolution struct {
	Route  Route
	Params []string
}

// Resolve 解析路径。
// 第一段选择控制器；第二段若是动作名则为动作，否则作为参数并使用 fallback 动作；其余段为参数。
func (t *Table) Resolve(path string) (Resolution, error) {
	segments := split(path)
	if len(segments) == 0 {
		segments = []string{t.root}
	}

	prefix := segments[0]
	ctrl, ok := t.prefixes[prefix]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: controlador %q desconhecido", ErrNotFound, prefix)
	}

	rest := segments[1:]
	name := ctrl.index
	if len(rest) > 0 {
		if _, isAction := ctrl.actions[rest[0]]; isAction {
			name, rest = rest[0], rest[1:]
		} else {
			name = ctrl.fallback
		}
	}

	route, ok := ctrl.actions[name]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: ação %q inexistente em %q", ErrNotFound, name, prefix)
	}
	if !route.accepts(len(rest)) {
		return Resolution{}, fmt.Errorf("%w: ação %s/%s recebeu %d parâmetro(s)", ErrNotFound, prefix, name, len(rest))
	}

	params := make([]string, len(rest))
	copy(params, rest)
	return Resolution{Route: route, Params: params}, nil
}

func split(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
