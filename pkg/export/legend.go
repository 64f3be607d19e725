package export

// EdgeStyle is the rendering hint for one relation type.
type EdgeStyle struct {
	Color string `json:"color"`
	Style string `json:"style"`
}

// NodeLayerStyle is the rendering hint for one node layer.
type NodeLayerStyle struct {
	Color string `json:"color"`
}

// LegendDoc pairs the edge and node layer style tables for viewers.
type LegendDoc struct {
	Edges      map[string]EdgeStyle      `json:"edges"`
	NodeLayers map[string]NodeLayerStyle `json:"node_layers"`
}

// Legend is the default rendering legend written with every export.
var Legend = LegendDoc{
	Edges: map[string]EdgeStyle{
		"father":             {Color: "#1f77b4", Style: "solid"},
		"mother":             {Color: "#ff7f0e", Style: "solid"},
		"spouse":             {Color: "#2ca02c", Style: "solid"},
		"child":              {Color: "#d62728", Style: "solid"},
		"sibling":            {Color: "#9467bd", Style: "dashed"},
		"relative":           {Color: "#8c564b", Style: "dotted"},
		"partner":            {Color: "#e377c2", Style: "solid"},
		"position_held":      {Color: "#7f7f7f", Style: "solid"},
		"member_of_party":    {Color: "#bcbd22", Style: "solid"},
		"member_of":          {Color: "#17becf", Style: "solid"},
		"employer":           {Color: "#aec7e8", Style: "solid"},
		"educated_at":        {Color: "#ffbb78", Style: "solid"},
		"head_of_government": {Color: "#98df8a", Style: "solid"},
		"head_of_state":      {Color: "#ff9896", Style: "solid"},
		"chairperson":        {Color: "#c5b0d5", Style: "solid"},
		"officeholder":       {Color: "#c49c94", Style: "solid"},
	},
	NodeLayers: map[string]NodeLayerStyle{
		"government": {Color: "#004170"},
		"military":   {Color: "#8b0000"},
		"bureaucrat": {Color: "#556b2f"},
	},
}
