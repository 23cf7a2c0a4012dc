package dto

// GenerateCodeRequest cuerpo de POST /generate_code.
type GenerateCodeRequest struct {
	RobotType string `json:"robot_type" validate:"required,max=255"`
}

// GenerateCodeResponse respuesta exitosa de POST /generate_code.
type GenerateCodeResponse struct {
	Code string `json:"code"`
}

// GenerateCodeError respuesta de error de POST /generate_code.
type GenerateCodeError struct {
	Error string `json:"error"`
}

// CounterResponse estado actual de un contador (API de administración, solo lectura).
type CounterResponse struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
	LastCode string `json:"last_code"`
}

// CounterListResponse listado paginado de contadores.
type CounterListResponse struct {
	Items []CounterResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
