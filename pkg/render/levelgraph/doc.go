// Package levelgraph renders the row structure of a level as a Graphviz
// diagram.
//
// # Overview
//
// Each row group becomes a cluster: the rows a single trigger stamps, from
// the group's first row to the terminal row that closes its parent chain.
// Chain edges inside a cluster are dashed where the previous row carries
// OffsetChild, and every row is labelled with the generation it is stamped
// at. Dotted edges link consecutive groups in trigger order.
//
// # Usage
//
//	dot := levelgraph.ToDOT(lvl, levelgraph.Options{Detailed: true})
//	svg, err := levelgraph.RenderSVG(ctx, dot)
//
// A level that ends inside a parent chain gets a red "missing row" node at
// the end of its last cluster; stamping such a level fails with
// INDEX_OUT_OF_RANGE when that group's trigger fires.
package levelgraph
