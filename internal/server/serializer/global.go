package serializer

// Global serialize the given render to the general API response format.
func Global(render interface{}) interface{} {
	return map[string]interface{}{
		"data": render,
	}
}

// Collection serializes each element of m with the given serializer.
func Collection[T any](m []T, serialize func(T) map[string]interface{}) []map[string]interface{} {
	r := make([]map[string]interface{}, len(m))
	for i, v := range m {
		r[i] = serialize(v)
	}
	return r
}
