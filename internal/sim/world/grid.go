package world

// Biome is the terrain category of a tile. It determines the tile's loot
// table and is immutable after world creation.
type Biome string

const (
	BiomePlains   Biome = "plains"
	BiomeForest   Biome = "forest"
	BiomeDesert   Biome = "desert"
	BiomeMountain Biome = "mountain"
)

var Biomes = []Biome{BiomePlains, BiomeForest, BiomeDesert, BiomeMountain}

// Tile is owned exclusively by the Grid. LastSearchedAtMs is a unix
// millisecond timestamp; zero means never searched.
type Tile struct {
	Biome            Biome
	LastSearchedAtMs int64
}

// Grid is the fixed-size tile world. It is created once at startup and never
// resized.
type Grid struct {
	Width  int
	Height int

	tiles [][]Tile // indexed [x][y]
}

func newGrid(width, height int, rng randSource) *Grid {
	tiles := make([][]Tile, width)
	for x := range tiles {
		col := make([]Tile, height)
		for y := range col {
			col[y] = Tile{Biome: Biomes[rng.Intn(len(Biomes))]}
		}
		tiles[x] = col
	}
	return &Grid{Width: width, Height: height, tiles: tiles}
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// TileAt returns the tile at (x, y). Callers must bounds-check first;
// coordinates outside the grid are undefined.
func (g *Grid) TileAt(x, y int) *Tile {
	return &g.tiles[x][y]
}

// Vision returns the (2*radius+1)^2 window of biomes centered on (cx, cy).
// Rows run north to south (descending y), columns west to east; cells outside
// the grid are nil.
func (g *Grid) Vision(cx, cy, radius int) [][]*Biome {
	rows := make([][]*Biome, 0, 2*radius+1)
	for y := cy + radius; y >= cy-radius; y-- {
		row := make([]*Biome, 0, 2*radius+1)
		for x := cx - radius; x <= cx+radius; x++ {
			if !g.InBounds(x, y) {
				row = append(row, nil)
				continue
			}
			b := g.TileAt(x, y).Biome
			row = append(row, &b)
		}
		rows = append(rows, row)
	}
	return rows
}
