package provider

import (
	"fmt"
	"sort"
	"strings"
)

// Registry 依名稱選擇供應商
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

// NewRegistry 創建供應商註冊表，defaultName 為未指定時使用的供應商
func NewRegistry(defaultName string, providers ...Provider) *Registry {
	r := &Registry{
		providers:   make(map[string]Provider, len(providers)),
		defaultName: strings.ToLower(defaultName),
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get 取得供應商，name 為空時使用預設值
func (r *Registry) Get(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = r.defaultName
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Default 預設供應商名稱
func (r *Registry) Default() string {
	return r.defaultName
}

// Names 已註冊的供應商名稱（排序）
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Close 關閉所有供應商
func (r *Registry) Close() error {
	var firstErr error
	for _, p := range r.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
