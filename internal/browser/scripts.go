// internal/browser/scripts.go
package browser

// Every element function is called with `this` bound to the node and returns
// {stale, value}. The isConnected guard turns a detached node into a stale
// report instead of a silently wrong answer.

// resolveJS finds nodes under `this` (a document or an element).
const resolveJS = `function(strategy, value) {
	var root = this;
	if (root.nodeType === 1 && !root.isConnected) {
		return {stale: true, nodes: []};
	}
	var doc = root.nodeType === 9 ? root : root.ownerDocument;
	var nodes = [];
	switch (strategy) {
	case "id":
		nodes = Array.prototype.slice.call(root.querySelectorAll("#" + CSS.escape(value)));
		break;
	case "css":
		nodes = Array.prototype.slice.call(root.querySelectorAll(value));
		break;
	case "xpath":
		var snap = doc.evaluate(value, root, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		for (var i = 0; i < snap.snapshotLength; i++) {
			var n = snap.snapshotItem(i);
			if (n.nodeType === 1) {
				nodes.push(n);
			}
		}
		break;
	case "link_text":
		var anchors = root.querySelectorAll("a");
		for (var j = 0; j < anchors.length; j++) {
			if ((anchors[j].innerText || "").trim() === value) {
				nodes.push(anchors[j]);
			}
		}
		break;
	case "class_name":
		nodes = Array.prototype.slice.call(root.getElementsByClassName(value));
		break;
	default:
		throw new Error("unsupported locator strategy " + strategy);
	}
	return {stale: false, nodes: nodes};
}`

const resolvedMetaJS = `function() { return {stale: this.stale, count: this.nodes.length}; }`

const resolvedNodeJS = `function(i) { return this.nodes[i]; }`

const textJS = `function() {
	if (!this.isConnected) { return {stale: true}; }
	return {stale: false, value: (this.innerText || this.textContent || "").trim()};
}`

const displayedJS = `function() {
	if (!this.isConnected) { return {stale: true}; }
	var s = window.getComputedStyle(this);
	if (s.display === "none" || s.visibility === "hidden" || s.visibility === "collapse" || Number(s.opacity) === 0) {
		return {stale: false, value: false};
	}
	var r = this.getBoundingClientRect();
	return {stale: false, value: r.width > 0 && r.height > 0};
}`

const enabledJS = `function() {
	if (!this.isConnected) { return {stale: true}; }
	var off = this.disabled === true || (this.closest && this.closest("fieldset[disabled]") !== null);
	return {stale: false, value: !off};
}`

const styleJS = `function(prop) {
	if (!this.isConnected) { return {stale: true}; }
	return {stale: false, value: window.getComputedStyle(this).getPropertyValue(prop)};
}`

const attributeJS = `function(name) {
	if (!this.isConnected) { return {stale: true}; }
	var v = this.getAttribute(name);
	return {stale: false, value: {present: v !== null, value: v === null ? "" : v}};
}`

const scrollJS = `function(block) {
	if (!this.isConnected) { return {stale: true}; }
	this.scrollIntoView({block: block, inline: "nearest"});
	return {stale: false, value: true};
}`

// pointJS centers the node in the viewport and reports the point a real
// pointer would hit, along with whether that point lands on the node.
const pointJS = `function() {
	if (!this.isConnected) { return {stale: true}; }
	this.scrollIntoView({block: "center", inline: "center"});
	var r = this.getBoundingClientRect();
	var x = r.left + r.width / 2, y = r.top + r.height / 2;
	var hit = document.elementFromPoint(x, y);
	return {stale: false, value: {
		x: x, y: y,
		width: r.width, height: r.height,
		hit: hit !== null && (hit === this || this.contains(hit)),
		blocker: hit === null ? "" : hit.tagName.toLowerCase() + (hit.id ? "#" + hit.id : "")
	}};
}`
