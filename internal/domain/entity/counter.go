package entity

// Counter es la fila persistida por categoría (tipo de robot / prefijo).
// Count es el último valor asignado; la primera asignación es 1.
type Counter struct {
	Category string
	Count    int64
}

// IssuedCode es el resultado de una asignación confirmada.
type IssuedCode struct {
	Category string
	Count    int64
	Code     string // "{Category}-{Count con ceros a la izquierda}"
}
